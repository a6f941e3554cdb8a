package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/credit"
	"backend/pkg/finance"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateOperationRequest struct {
	OrderNumber  uint64                   `json:"order_number" binding:"required"`
	Type         string                   `json:"type"`
	Capital      model.Capital            `json:"capital"`
	NominalRate  decimal.Decimal          `json:"nominal_rate"`
	Term         model.Term               `json:"term"`
	Insurance    model.OperationInsurance `json:"insurance"`
	AffectedLine string                   `json:"affected_line"`
	CreditAcct   model.CreditAccount      `json:"credit_account"`
}

// UpdateOperationPatch is the whitelisted set of mutable operation fields.
// Derived amounts are recomputed after every accepted patch.
type UpdateOperationPatch struct {
	Type         *string                   `json:"type"`
	Capital      *model.Capital            `json:"capital"`
	NominalRate  *decimal.Decimal          `json:"nominal_rate"`
	Term         *model.Term               `json:"term"`
	Insurance    *model.OperationInsurance `json:"insurance"`
	AffectedLine *string                   `json:"affected_line"`
	CreditAcct   *model.CreditAccount      `json:"credit_account"`
}

// EffectiveRateResult reports the annualized compounding equivalent of the
// operation's nominal rate over its term.
type EffectiveRateResult struct {
	Nominal    decimal.Decimal `json:"nominal"`
	Effective  decimal.Decimal `json:"effective"`
	Difference decimal.Decimal `json:"difference"`
}

// LimitCheckResult reports the exposure gate outcome.
type LimitCheckResult struct {
	Exceeded bool            `json:"exceeded"`
	Total    decimal.Decimal `json:"total"`
	MaxLimit decimal.Decimal `json:"max_limit"`
}

// --- Interface ---

// OperationService manages the contract lifecycle from creation through the
// hand-off to the background integrator. Every transition appends to the
// operation's append-only log.
type OperationService interface {
	Create(ctx context.Context, req CreateOperationRequest, actor string, now time.Time) (*model.Operation, error)
	GetByNumber(ctx context.Context, number string) (*model.Operation, error)
	List(ctx context.Context, filter repository.OperationFilter, page, limit int) ([]model.Operation, int64, error)
	Update(ctx context.Context, number string, patch UpdateOperationPatch, actor string) (*model.Operation, error)
	// CalculateEffectiveRate derives and persists the effective rate for the
	// operation's current nominal rate and term.
	CalculateEffectiveRate(ctx context.Context, number string) (*model.Operation, *EffectiveRateResult, error)
	// ValidateLimits checks total capital against the ceiling, persists the
	// flag and returns whether the operation may proceed.
	ValidateLimits(ctx context.Context, number string, maxLimit decimal.Decimal) (*model.Operation, *LimitCheckResult, error)
	Approve(ctx context.Context, number string, actor string, now time.Time) (*model.Operation, error)
	Reject(ctx context.Context, number string, reason, actor string, now time.Time) (*model.Operation, error)
	// Integrate gates on APPROVED, moves the operation to EM_PROCESSAMENTO
	// under an optimistic status precondition and enqueues it for the worker.
	Integrate(ctx context.Context, number string, actor string, now time.Time) (*model.Operation, error)
	AddLog(ctx context.Context, number string, action, actor, details string, now time.Time) (*model.OperationLogEntry, error)
}

type operationService struct {
	operations repository.OperationRepository
	orders     repository.OrderRepository
	clients    repository.ClientRepository
	queue      IntegrationQueue
}

func NewOperationService(
	operations repository.OperationRepository,
	orders repository.OrderRepository,
	clients repository.ClientRepository,
	queue IntegrationQueue,
) OperationService {
	return &operationService{operations: operations, orders: orders, clients: clients, queue: queue}
}

// --- Implementation ---

// NewOperationNumber derives an operation number from the creation instant.
func NewOperationNumber(now time.Time) string {
	return fmt.Sprintf("OP%d", now.UnixMilli())
}

func (s *operationService) Create(ctx context.Context, req CreateOperationRequest, actor string, now time.Time) (*model.Operation, error) {
	order, err := s.orders.FindByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, wrapNotFound(err, "order")
	}
	client, err := s.clients.FindByCode(ctx, order.Client.Code)
	if err != nil {
		return nil, wrapNotFound(err, "client")
	}

	op := &model.Operation{
		Number:       NewOperationNumber(now),
		OrderID:      order.ID,
		ClientID:     client.ID,
		Type:         req.Type,
		Capital:      req.Capital,
		Rate:         model.Rate{Nominal: req.NominalRate},
		Term:         req.Term,
		Insurance:    req.Insurance,
		AffectedLine: req.AffectedLine,
		CreditAcct:   req.CreditAcct,
		Status:       model.OperationStatusPending,
		Messages:     []string{},
		Actor:        actor,
	}
	if op.Type == "" {
		op.Type = model.OperationTypeDiscountCheck
	}
	if op.AffectedLine == "" {
		op.AffectedLine = order.AffectedLine
	}
	if op.Rate.Nominal.IsZero() {
		op.Rate.Nominal = order.Rate
	}
	op.RecomputeDerived()

	if err := s.operations.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to create operation: %w", err)
	}
	if err := s.operations.AppendLog(ctx, &model.OperationLogEntry{
		OperationID: op.ID,
		Action:      model.LogActionCreated,
		Actor:       actor,
		Details:     fmt.Sprintf("operation created from order %d", order.Number),
		CreatedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("failed to log operation creation: %w", err)
	}
	return op, nil
}

func (s *operationService) GetByNumber(ctx context.Context, number string) (*model.Operation, error) {
	op, err := s.operations.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "operation")
	}
	return op, nil
}

func (s *operationService) List(ctx context.Context, filter repository.OperationFilter, page, limit int) ([]model.Operation, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.operations.List(ctx, filter, page, limit)
}

func (s *operationService) Update(ctx context.Context, number string, patch UpdateOperationPatch, actor string) (*model.Operation, error) {
	op, err := s.operations.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "operation")
	}
	if op.Status == model.OperationStatusIntegrated {
		return nil, fmt.Errorf("operation %s is INTEGRATED: %w", op.Number, ErrInvalidState)
	}

	if patch.Type != nil {
		op.Type = *patch.Type
	}
	if patch.Capital != nil {
		op.Capital = *patch.Capital
	}
	if patch.NominalRate != nil {
		op.Rate.Nominal = *patch.NominalRate
	}
	if patch.Term != nil {
		op.Term = *patch.Term
	}
	if patch.Insurance != nil {
		op.Insurance = *patch.Insurance
	}
	if patch.AffectedLine != nil {
		op.AffectedLine = *patch.AffectedLine
	}
	if patch.CreditAcct != nil {
		op.CreditAcct = *patch.CreditAcct
	}
	op.RecomputeDerived()
	op.Actor = actor

	if err := s.operations.Save(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to update operation: %w", err)
	}
	return op, nil
}

func (s *operationService) CalculateEffectiveRate(ctx context.Context, number string) (*model.Operation, *EffectiveRateResult, error) {
	op, err := s.operations.FindByNumber(ctx, number)
	if err != nil {
		return nil, nil, wrapNotFound(err, "operation")
	}
	if op.Term.Days <= 0 {
		return nil, nil, NewValidationError("Prazo em dias deve ser maior que zero")
	}
	if !op.Capital.Principal.IsPositive() {
		return nil, nil, NewValidationError("Capital principal deve ser maior que zero")
	}

	effective := finance.EffectiveRate(op.Rate.Nominal, op.Term.Days)
	op.Rate.Effective = effective
	if err := s.operations.Save(ctx, op); err != nil {
		return nil, nil, fmt.Errorf("failed to persist effective rate: %w", err)
	}

	return op, &EffectiveRateResult{
		Nominal:    op.Rate.Nominal,
		Effective:  effective,
		Difference: effective.Sub(op.Rate.Nominal),
	}, nil
}

func (s *operationService) ValidateLimits(ctx context.Context, number string, maxLimit decimal.Decimal) (*model.Operation, *LimitCheckResult, error) {
	op, err := s.operations.FindByNumber(ctx, number)
	if err != nil {
		return nil, nil, wrapNotFound(err, "operation")
	}

	op.RecomputeDerived()
	result := &LimitCheckResult{
		Exceeded: op.Capital.Total.GreaterThan(maxLimit),
		Total:    op.Capital.Total,
		MaxLimit: maxLimit,
	}
	op.Validations.LimitExceeded = result.Exceeded
	if result.Exceeded {
		op.Messages = append(op.Messages,
			fmt.Sprintf("Limite máximo excedido: %s > %s", op.Capital.Total.String(), maxLimit.String()))
	}

	if err := s.operations.Save(ctx, op); err != nil {
		return nil, nil, fmt.Errorf("failed to persist limit check: %w", err)
	}
	return op, result, nil
}

func (s *operationService) Approve(ctx context.Context, number string, actor string, now time.Time) (*model.Operation, error) {
	op, err := s.operations.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "operation")
	}
	if op.Status != model.OperationStatusPending {
		return nil, fmt.Errorf("operation %s is %s: %w", op.Number, op.Status, ErrInvalidState)
	}
	if op.Validations.LimitExceeded {
		return nil, NewValidationError(fmt.Sprintf("Limite máximo excedido na operação %s", op.Number))
	}

	client, err := s.clients.FindByID(ctx, op.ClientID)
	if err != nil {
		return nil, wrapNotFound(err, "client")
	}
	line := client.CreditLineFor(op.AffectedLine)
	capacity := credit.Evaluate(credit.Line{Ceiling: line.Ceiling, Utilized: line.Utilized}, op.Capital.Total)
	op.Validations.ClientValid = client.Status == model.ClientStatusActive && len(client.Restrictions) == 0
	op.Validations.CreditLineSufficient = capacity.Sufficient

	var reasons []string
	if !op.Validations.ClientValid {
		reasons = append(reasons, fmt.Sprintf("Cliente %d inválido", client.Code))
	}
	if !capacity.Sufficient {
		reasons = append(reasons, fmt.Sprintf("Linha de crédito %s insuficiente", op.AffectedLine))
	}
	if len(reasons) > 0 {
		if saveErr := s.operations.Save(ctx, op); saveErr != nil {
			return nil, fmt.Errorf("failed to persist approval validations: %w", saveErr)
		}
		return nil, NewValidationError(reasons...)
	}

	op.Status = model.OperationStatusApproved
	op.Actor = actor
	if err := s.operations.Save(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to approve operation: %w", err)
	}
	if err := s.operations.AppendLog(ctx, &model.OperationLogEntry{
		OperationID: op.ID,
		Action:      model.LogActionApproved,
		Actor:       actor,
		CreatedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("failed to log approval: %w", err)
	}
	return op, nil
}

func (s *operationService) Reject(ctx context.Context, number string, reason, actor string, now time.Time) (*model.Operation, error) {
	if reason == "" {
		return nil, NewValidationError("Motivo da rejeição é obrigatório")
	}

	op, err := s.operations.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "operation")
	}
	if op.Status == model.OperationStatusIntegrated {
		return nil, fmt.Errorf("operation %s is INTEGRATED: %w", op.Number, ErrInvalidState)
	}

	op.Status = model.OperationStatusRejected
	op.Messages = append(op.Messages, fmt.Sprintf("Rejected: %s", reason))
	op.Actor = actor
	if err := s.operations.Save(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to reject operation: %w", err)
	}
	if err := s.operations.AppendLog(ctx, &model.OperationLogEntry{
		OperationID: op.ID,
		Action:      model.LogActionRejected,
		Actor:       actor,
		Details:     reason,
		CreatedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("failed to log rejection: %w", err)
	}
	return op, nil
}

func (s *operationService) Integrate(ctx context.Context, number string, actor string, now time.Time) (*model.Operation, error) {
	op, err := s.operations.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "operation")
	}
	if op.Status != model.OperationStatusApproved {
		return nil, fmt.Errorf("operation %s is %s, expected APPROVED: %w", op.Number, op.Status, ErrInvalidState)
	}

	moved, err := s.operations.UpdateStatusIf(ctx, op.ID, model.OperationStatusApproved, model.OperationStatusProcessing,
		map[string]interface{}{"actor": actor, "updated_at": now})
	if err != nil {
		return nil, fmt.Errorf("failed to mark operation processing: %w", err)
	}
	if !moved {
		return nil, fmt.Errorf("operation %s is no longer APPROVED: %w", op.Number, ErrInvalidState)
	}

	op.Status = model.OperationStatusProcessing
	op.Actor = actor
	s.queue.EnqueueOperation(op.ID)
	return op, nil
}

func (s *operationService) AddLog(ctx context.Context, number string, action, actor, details string, now time.Time) (*model.OperationLogEntry, error) {
	op, err := s.operations.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "operation")
	}

	entry := &model.OperationLogEntry{
		OperationID: op.ID,
		Action:      action,
		Actor:       actor,
		Details:     details,
		CreatedAt:   now,
	}
	if err := s.operations.AppendLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append operation log: %w", err)
	}
	return entry, nil
}
