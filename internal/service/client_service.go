package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/credit"
	"backend/pkg/document"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreditLineInput struct {
	Ceiling  decimal.Decimal `json:"ceiling"`
	Utilized decimal.Decimal `json:"utilized"`
}

type RegisterClientRequest struct {
	Code        uint64                `json:"code" binding:"required"`
	Name        string                `json:"name" binding:"required,min=2"`
	PersonType  string                `json:"person_type" binding:"required,oneof=INDIVIDUAL ORGANIZATION"`
	Document    string                `json:"document" binding:"required"`
	Branch      model.Branch          `json:"branch"`
	Activity    model.Activity        `json:"activity"`
	Drawer      *CreditLineInput      `json:"drawer_line"`
	Endorser    *CreditLineInput      `json:"endorser_line"`
	BankAccount model.BankAccount     `json:"bank_account"`
	Insurance   model.ClientInsurance `json:"insurance"`
}

// UpdateClientPatch is the whitelisted set of mutable client fields. Unknown
// request fields are rejected at bind time; absent fields stay untouched.
type UpdateClientPatch struct {
	Name         *string                `json:"name"`
	Document     *string                `json:"document"`
	Branch       *model.Branch          `json:"branch"`
	Drawer       *CreditLineInput       `json:"drawer_line"`
	Endorser     *CreditLineInput       `json:"endorser_line"`
	BankAccount  *model.BankAccount     `json:"bank_account"`
	Insurance    *model.ClientInsurance `json:"insurance"`
	Restrictions *[]string              `json:"restrictions"`
	Status       *string                `json:"status"`
}

// ClientValidation is the report returned when a client is checked against a
// proposed exposure.
type ClientValidation struct {
	Valid        bool                       `json:"valid"`
	Reasons      []string                   `json:"reasons"`
	Lines        map[string]credit.Capacity `json:"lines"`
	RequestedFor string                     `json:"requested_for,omitempty"`
	Capacity     *credit.Capacity           `json:"capacity,omitempty"`
}

// --- Interface ---

// ClientService manages client registration and validity. Clients are never
// deleted; Deactivate moves them to INACTIVE.
type ClientService interface {
	Register(ctx context.Context, req RegisterClientRequest) (*model.Client, error)
	GetByCode(ctx context.Context, code uint64) (*model.Client, error)
	List(ctx context.Context, filter repository.ClientFilter, page, limit int) ([]model.Client, int64, error)
	Update(ctx context.Context, code uint64, patch UpdateClientPatch) (*model.Client, error)
	Deactivate(ctx context.Context, code uint64) (*model.Client, error)
	SetActivity(ctx context.Context, code uint64, activity model.Activity) (*model.Client, error)
	// Validate reports overall client validity plus per-line capacity. When
	// role is non-empty, the requested exposure is evaluated against that
	// line; a non-ACTIVE status or any restriction fails overall validity.
	Validate(ctx context.Context, code uint64, role string, requested decimal.Decimal) (*model.Client, *ClientValidation, error)
}

type clientService struct {
	clients repository.ClientRepository
}

func NewClientService(clients repository.ClientRepository) ClientService {
	return &clientService{clients: clients}
}

// --- Implementation ---

func (s *clientService) Register(ctx context.Context, req RegisterClientRequest) (*model.Client, error) {
	if !document.Validate(req.Document, req.PersonType) {
		return nil, NewValidationError("Documento inválido para o tipo de pessoa")
	}

	if _, err := s.clients.FindByCode(ctx, req.Code); err == nil {
		return nil, fmt.Errorf("client code %d: %w", req.Code, ErrDuplicateKey)
	}
	if _, err := s.clients.FindByDocument(ctx, req.Document); err == nil {
		return nil, fmt.Errorf("client document %s: %w", req.Document, ErrDuplicateKey)
	}

	client := &model.Client{
		Code:        req.Code,
		Name:        req.Name,
		PersonType:  req.PersonType,
		Document:    req.Document,
		Branch:      req.Branch,
		Activity:    req.Activity,
		BankAccount: req.BankAccount,
		Insurance:   req.Insurance,
		Status:      model.ClientStatusActive,
	}
	if req.Drawer != nil {
		client.DrawerLine = model.CreditLine{Ceiling: req.Drawer.Ceiling, Utilized: req.Drawer.Utilized}
	}
	if req.Endorser != nil {
		client.EndorserLine = model.CreditLine{Ceiling: req.Endorser.Ceiling, Utilized: req.Endorser.Utilized}
	}

	if err := s.clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (s *clientService) GetByCode(ctx context.Context, code uint64) (*model.Client, error) {
	client, err := s.clients.FindByCode(ctx, code)
	if err != nil {
		return nil, wrapNotFound(err, "client")
	}
	return client, nil
}

func (s *clientService) List(ctx context.Context, filter repository.ClientFilter, page, limit int) ([]model.Client, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.clients.List(ctx, filter, page, limit)
}

func (s *clientService) Update(ctx context.Context, code uint64, patch UpdateClientPatch) (*model.Client, error) {
	client, err := s.clients.FindByCode(ctx, code)
	if err != nil {
		return nil, wrapNotFound(err, "client")
	}

	if patch.Document != nil && *patch.Document != client.Document {
		if !document.Validate(*patch.Document, client.PersonType) {
			return nil, NewValidationError("Documento inválido para o tipo de pessoa")
		}
		if _, findErr := s.clients.FindByDocument(ctx, *patch.Document); findErr == nil {
			return nil, fmt.Errorf("client document %s: %w", *patch.Document, ErrDuplicateKey)
		}
		client.Document = *patch.Document
	}
	if patch.Name != nil {
		client.Name = *patch.Name
	}
	if patch.Branch != nil {
		client.Branch = *patch.Branch
	}
	if patch.Drawer != nil {
		client.DrawerLine = model.CreditLine{Ceiling: patch.Drawer.Ceiling, Utilized: patch.Drawer.Utilized}
	}
	if patch.Endorser != nil {
		client.EndorserLine = model.CreditLine{Ceiling: patch.Endorser.Ceiling, Utilized: patch.Endorser.Utilized}
	}
	if patch.BankAccount != nil {
		client.BankAccount = *patch.BankAccount
	}
	if patch.Insurance != nil {
		client.Insurance = *patch.Insurance
	}
	if patch.Restrictions != nil {
		client.Restrictions = *patch.Restrictions
	}
	if patch.Status != nil {
		switch *patch.Status {
		case model.ClientStatusActive, model.ClientStatusBlocked, model.ClientStatusInactive:
			client.Status = *patch.Status
		default:
			return nil, NewValidationError(fmt.Sprintf("Status inválido: %s", *patch.Status))
		}
	}

	if err := s.clients.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return client, nil
}

func (s *clientService) Deactivate(ctx context.Context, code uint64) (*model.Client, error) {
	client, err := s.clients.FindByCode(ctx, code)
	if err != nil {
		return nil, wrapNotFound(err, "client")
	}

	client.Status = model.ClientStatusInactive
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to deactivate client: %w", err)
	}
	return client, nil
}

// organizationActivityFloor is the lowest activity code allowed for
// ORGANIZATION clients.
const organizationActivityFloor = 100000

func (s *clientService) SetActivity(ctx context.Context, code uint64, activity model.Activity) (*model.Client, error) {
	client, err := s.clients.FindByCode(ctx, code)
	if err != nil {
		return nil, wrapNotFound(err, "client")
	}

	if client.PersonType == model.PersonTypeOrganization && activity.Code < organizationActivityFloor {
		return nil, NewValidationError("Atividade não permitida para pessoa jurídica")
	}

	client.Activity = activity
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to set activity: %w", err)
	}
	return client, nil
}

func (s *clientService) Validate(ctx context.Context, code uint64, role string, requested decimal.Decimal) (*model.Client, *ClientValidation, error) {
	client, err := s.clients.FindByCode(ctx, code)
	if err != nil {
		return nil, nil, wrapNotFound(err, "client")
	}

	validation := EvaluateClient(client, role, requested)
	return client, validation, nil
}

// EvaluateClient is the pure validity check behind Validate: ACTIVE status,
// empty restriction list, and per-line capacity against the requested
// exposure. Negative availability is reported as-is.
func EvaluateClient(client *model.Client, role string, requested decimal.Decimal) *ClientValidation {
	validation := &ClientValidation{
		Valid:   true,
		Reasons: []string{},
		Lines: map[string]credit.Capacity{
			model.LineDrawer: credit.Evaluate(credit.Line{
				Ceiling:  client.DrawerLine.Ceiling,
				Utilized: client.DrawerLine.Utilized,
			}, decimal.Zero),
			model.LineEndorser: credit.Evaluate(credit.Line{
				Ceiling:  client.EndorserLine.Ceiling,
				Utilized: client.EndorserLine.Utilized,
			}, decimal.Zero),
		},
	}

	if len(client.Restrictions) > 0 {
		validation.Valid = false
		validation.Reasons = append(validation.Reasons, client.Restrictions...)
	}
	if client.Status != model.ClientStatusActive {
		validation.Valid = false
		validation.Reasons = append(validation.Reasons, fmt.Sprintf("Cliente com status: %s", client.Status))
	}

	if role != "" {
		line := client.CreditLineFor(role)
		capacity := credit.Evaluate(credit.Line{Ceiling: line.Ceiling, Utilized: line.Utilized}, requested)
		validation.RequestedFor = role
		validation.Capacity = &capacity
		if !capacity.Sufficient {
			validation.Valid = false
			validation.Reasons = append(validation.Reasons,
				fmt.Sprintf("Linha de crédito %s insuficiente", role))
		}
	}

	return validation
}
