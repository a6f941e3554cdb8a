package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/document"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type PartyInput struct {
	Name       string `json:"name"`
	Document   string `json:"document"`
	PersonType string `json:"person_type"`
}

type CreateCheckRequest struct {
	Number      string          `json:"number" binding:"required"`
	BankCode    string          `json:"bank_code" binding:"required"`
	BankName    string          `json:"bank_name"`
	Agency      string          `json:"agency"`
	Account     string          `json:"account"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	IssueDate   *time.Time      `json:"issue_date"`
	DueDate     *time.Time      `json:"due_date"`
	Drawer      PartyInput      `json:"drawer" binding:"required"`
	Endorser    *PartyInput     `json:"endorser"`
	OrderNumber uint64          `json:"order_number" binding:"required"`
}

// UpdateCheckPatch is the whitelisted set of mutable check fields. Editing an
// INTEGRATED check is refused outright; the drawer document flag is recomputed
// on every accepted patch.
type UpdateCheckPatch struct {
	BankName *string          `json:"bank_name"`
	Agency   *string          `json:"agency"`
	Account  *string          `json:"account"`
	Amount   *decimal.Decimal `json:"amount"`
	DueDate  *time.Time       `json:"due_date"`
	Drawer   *PartyInput      `json:"drawer"`
	Endorser *PartyInput      `json:"endorser"`
}

// --- Interface ---

// CheckService manages the check lifecycle. All transitions take the acting
// user and the evaluation instant explicitly so approval gating is
// deterministic under test.
type CheckService interface {
	Create(ctx context.Context, req CreateCheckRequest, actor string) (*model.Check, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Check, error)
	List(ctx context.Context, filter repository.CheckFilter, page, limit int) ([]model.Check, int64, error)
	Update(ctx context.Context, id uuid.UUID, patch UpdateCheckPatch, actor string) (*model.Check, error)
	// Validate recomputes and persists the validation snapshot. Idempotent:
	// re-running against an unchanged check yields the same flags and appends
	// no duplicate messages.
	Validate(ctx context.Context, id uuid.UUID, now time.Time) (*model.Check, error)
	Approve(ctx context.Context, id uuid.UUID, actor string, now time.Time) (*model.Check, error)
	Reject(ctx context.Context, id uuid.UUID, reason, actor string, now time.Time) (*model.Check, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string, now time.Time) (*model.Check, error)
}

type checkService struct {
	checks  repository.CheckRepository
	orders  repository.OrderRepository
	clients repository.ClientRepository
}

func NewCheckService(
	checks repository.CheckRepository,
	orders repository.OrderRepository,
	clients repository.ClientRepository,
) CheckService {
	return &checkService{checks: checks, orders: orders, clients: clients}
}

// --- Implementation ---

func (s *checkService) Create(ctx context.Context, req CreateCheckRequest, actor string) (*model.Check, error) {
	order, err := s.orders.FindByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, wrapNotFound(err, "order")
	}
	client, err := s.clients.FindByCode(ctx, order.Client.Code)
	if err != nil {
		return nil, wrapNotFound(err, "client")
	}

	if _, err := s.checks.FindByNumberAndBank(ctx, req.Number, req.BankCode); err == nil {
		return nil, fmt.Errorf("check %s/%s: %w", req.Number, req.BankCode, ErrDuplicateKey)
	}

	check := &model.Check{
		Number:    req.Number,
		BankCode:  req.BankCode,
		BankName:  req.BankName,
		Agency:    req.Agency,
		Account:   req.Account,
		Amount:    req.Amount,
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		Drawer: model.Party{
			Name:       req.Drawer.Name,
			Document:   req.Drawer.Document,
			PersonType: req.Drawer.PersonType,
		},
		OrderID:  order.ID,
		ClientID: client.ID,
		Status:   model.CheckStatusPending,
		Messages: []string{},
		Actor:    actor,
	}
	if req.Endorser != nil {
		check.Endorser = model.Party{
			Name:       req.Endorser.Name,
			Document:   req.Endorser.Document,
			PersonType: req.Endorser.PersonType,
		}
	}
	check.Validations.DocumentValid = document.Validate(check.Drawer.Document, check.Drawer.PersonType)

	if err := s.checks.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to create check: %w", err)
	}
	return check, nil
}

func (s *checkService) Get(ctx context.Context, id uuid.UUID) (*model.Check, error) {
	check, err := s.checks.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "check")
	}
	return check, nil
}

func (s *checkService) List(ctx context.Context, filter repository.CheckFilter, page, limit int) ([]model.Check, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.checks.List(ctx, filter, page, limit)
}

func (s *checkService) Update(ctx context.Context, id uuid.UUID, patch UpdateCheckPatch, actor string) (*model.Check, error) {
	check, err := s.checks.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "check")
	}
	if check.Status == model.CheckStatusIntegrated {
		return nil, fmt.Errorf("check %s is INTEGRATED: %w", check.Number, ErrInvalidState)
	}

	if patch.BankName != nil {
		check.BankName = *patch.BankName
	}
	if patch.Agency != nil {
		check.Agency = *patch.Agency
	}
	if patch.Account != nil {
		check.Account = *patch.Account
	}
	if patch.Amount != nil {
		check.Amount = *patch.Amount
	}
	if patch.DueDate != nil {
		check.DueDate = patch.DueDate
	}
	if patch.Drawer != nil {
		check.Drawer = model.Party{
			Name:       patch.Drawer.Name,
			Document:   patch.Drawer.Document,
			PersonType: patch.Drawer.PersonType,
		}
	}
	if patch.Endorser != nil {
		check.Endorser = model.Party{
			Name:       patch.Endorser.Name,
			Document:   patch.Endorser.Document,
			PersonType: patch.Endorser.PersonType,
		}
	}
	check.Validations.DocumentValid = document.Validate(check.Drawer.Document, check.Drawer.PersonType)
	check.Actor = actor

	if err := s.checks.Save(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to update check: %w", err)
	}
	return check, nil
}

func (s *checkService) Validate(ctx context.Context, id uuid.UUID, now time.Time) (*model.Check, error) {
	check, err := s.checks.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "check")
	}

	check.Validations, check.Messages = evaluateCheck(check, now)

	if err := s.checks.Save(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to persist check validation: %w", err)
	}
	return check, nil
}

// evaluateCheck recomputes the full validation snapshot from the stored
// fields. The message list is rebuilt from scratch, which keeps the operation
// idempotent.
func evaluateCheck(check *model.Check, now time.Time) (model.CheckValidations, []string) {
	v := model.CheckValidations{}
	messages := []string{}

	v.DocumentValid = document.Validate(check.Drawer.Document, check.Drawer.PersonType)
	if !v.DocumentValid {
		messages = append(messages, fmt.Sprintf("Cheque %s com documento inválido", check.Number))
	}

	// A check without a due date is payable at sight; only a past due date
	// fails.
	v.DueDateValid = check.DueDate == nil || !check.DueDate.Before(now)
	if !v.DueDateValid {
		messages = append(messages, fmt.Sprintf("Cheque %s com data de vencimento inválida", check.Number))
	}

	v.AmountValid = check.Amount.IsPositive()
	if !v.AmountValid {
		messages = append(messages, fmt.Sprintf("Cheque %s com valor inválido", check.Number))
	}

	// Party validity is a completeness check, not a checksum: both name and
	// document must be filled in. Checksum failures surface as DocumentValid.
	v.DrawerValid = check.Drawer.Name != "" && check.Drawer.Document != ""
	if !v.DrawerValid {
		messages = append(messages, fmt.Sprintf("Cheque %s com emitente inválido", check.Number))
	}

	// The endorser slot is optional; empty passes, filled requires both
	// fields.
	v.EndorserValid = check.Endorser.Empty() ||
		(check.Endorser.Name != "" && check.Endorser.Document != "")
	if !v.EndorserValid {
		messages = append(messages, fmt.Sprintf("Cheque %s com endossante inválido", check.Number))
	}

	return v, messages
}

func (s *checkService) Approve(ctx context.Context, id uuid.UUID, actor string, now time.Time) (*model.Check, error) {
	check, err := s.checks.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "check")
	}
	if check.Status != model.CheckStatusPending {
		return nil, fmt.Errorf("check %s is %s: %w", check.Number, check.Status, ErrInvalidState)
	}

	// Approval gates on the stored snapshot re-evaluated at the approval
	// instant, not on the flags persisted by an earlier validate call.
	var reasons []string
	if !document.Validate(check.Drawer.Document, check.Drawer.PersonType) {
		reasons = append(reasons, fmt.Sprintf("Cheque %s com documento inválido", check.Number))
	}
	if check.DueDate != nil && check.DueDate.Before(now) {
		reasons = append(reasons, fmt.Sprintf("Cheque %s com data de vencimento inválida", check.Number))
	}
	if !check.Amount.IsPositive() {
		reasons = append(reasons, fmt.Sprintf("Cheque %s com valor inválido", check.Number))
	}
	if len(reasons) > 0 {
		return nil, NewValidationError(reasons...)
	}

	check.Status = model.CheckStatusApproved
	check.ProcessedAt = &now
	check.Actor = actor
	if err := s.checks.Save(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to approve check: %w", err)
	}
	return check, nil
}

func (s *checkService) Reject(ctx context.Context, id uuid.UUID, reason, actor string, now time.Time) (*model.Check, error) {
	if reason == "" {
		return nil, NewValidationError("Motivo da rejeição é obrigatório")
	}

	check, err := s.checks.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "check")
	}
	if check.Status == model.CheckStatusIntegrated {
		return nil, fmt.Errorf("check %s is INTEGRATED: %w", check.Number, ErrInvalidState)
	}

	check.Status = model.CheckStatusRejected
	check.Messages = append(check.Messages, fmt.Sprintf("Rejected: %s", reason))
	check.ProcessedAt = &now
	check.Actor = actor
	if err := s.checks.Save(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to reject check: %w", err)
	}
	return check, nil
}

func (s *checkService) Cancel(ctx context.Context, id uuid.UUID, actor string, now time.Time) (*model.Check, error) {
	check, err := s.checks.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "check")
	}
	if check.Status == model.CheckStatusIntegrated {
		return nil, fmt.Errorf("check %s is INTEGRATED: %w", check.Number, ErrInvalidState)
	}

	check.Status = model.CheckStatusCanceled
	check.ProcessedAt = &now
	check.Actor = actor
	if err := s.checks.Save(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to cancel check: %w", err)
	}
	return check, nil
}
