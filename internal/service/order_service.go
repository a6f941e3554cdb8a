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

// IntegrationQueue hands a successfully gated entity to the background
// integrator. Enqueueing happens only after the EM_PROCESSAMENTO transition
// has committed.
type IntegrationQueue interface {
	EnqueueOrder(id uuid.UUID)
	EnqueueOperation(id uuid.UUID)
}

// --- DTOs ---

type CreateOrderRequest struct {
	Number       uint64               `json:"number"`
	ClientCode   uint64               `json:"client_code" binding:"required"`
	Rate         decimal.Decimal      `json:"rate" binding:"required"`
	Sector       string               `json:"sector"`
	Origin       string               `json:"origin"`
	Expenses     model.OrderExpenses  `json:"expenses"`
	Insurance    model.OrderInsurance `json:"insurance"`
	AffectedLine string               `json:"affected_line"`
	CreditAcct   model.CreditAccount  `json:"credit_account"`
}

// UpdateOrderPatch is the whitelisted set of mutable order fields. Orders in
// INTEGRATED or CANCELED refuse every patch.
type UpdateOrderPatch struct {
	Rate         *decimal.Decimal      `json:"rate"`
	Sector       *string               `json:"sector"`
	Expenses     *model.OrderExpenses  `json:"expenses"`
	Insurance    *model.OrderInsurance `json:"insurance"`
	AffectedLine *string               `json:"affected_line"`
	CreditAcct   *model.CreditAccount  `json:"credit_account"`
}

// OrderValidationResult is the outcome of the pre-integration gate.
type OrderValidationResult struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons"`
}

// --- Interface ---

// OrderService manages the order lifecycle up to the hand-off to the
// background integrator. The terminal INTEGRATED/ERROR transitions belong to
// the worker, never to this service.
type OrderService interface {
	Create(ctx context.Context, req CreateOrderRequest, actor string, now time.Time) (*model.Order, error)
	GetByNumber(ctx context.Context, number uint64) (*model.Order, error)
	List(ctx context.Context, filter repository.OrderFilter, page, limit int) ([]model.Order, int64, error)
	Update(ctx context.Context, number uint64, patch UpdateOrderPatch, actor string) (*model.Order, error)
	// Validate runs the integration gate without side effects.
	Validate(ctx context.Context, number uint64) (*model.Order, *OrderValidationResult, error)
	// Integrate gates the order, moves it PENDING -> EM_PROCESSAMENTO under an
	// optimistic status precondition and enqueues it for the worker.
	Integrate(ctx context.Context, number uint64, actor string, now time.Time) (*model.Order, error)
	Cancel(ctx context.Context, number uint64, actor string) (*model.Order, error)
}

type orderService struct {
	orders  repository.OrderRepository
	checks  repository.CheckRepository
	clients repository.ClientRepository
	queue   IntegrationQueue
}

func NewOrderService(
	orders repository.OrderRepository,
	checks repository.CheckRepository,
	clients repository.ClientRepository,
	queue IntegrationQueue,
) OrderService {
	return &orderService{orders: orders, checks: checks, clients: clients, queue: queue}
}

// --- Implementation ---

func (s *orderService) Create(ctx context.Context, req CreateOrderRequest, actor string, now time.Time) (*model.Order, error) {
	client, err := s.clients.FindByCode(ctx, req.ClientCode)
	if err != nil {
		return nil, wrapNotFound(err, "client")
	}

	number := req.Number
	if number == 0 {
		number = uint64(now.UnixMilli())
	}
	if _, err := s.orders.FindByNumber(ctx, number); err == nil {
		return nil, fmt.Errorf("order number %d: %w", number, ErrDuplicateKey)
	}

	order := &model.Order{
		Number:       number,
		Client:       model.OrderClientRef{Code: client.Code, Name: client.Name},
		Branch:       client.Branch,
		Rate:         req.Rate,
		Sector:       req.Sector,
		Origin:       req.Origin,
		Status:       model.OrderStatusPending,
		Expenses:     req.Expenses,
		Insurance:    req.Insurance,
		AffectedLine: req.AffectedLine,
		CreditAcct:   req.CreditAcct,
		Messages:     []string{},
		Actor:        actor,
	}
	if order.Sector == "" {
		order.Sector = model.SectorPersonal
	}
	if order.Origin == "" {
		order.Origin = model.OriginForm
	}
	if order.AffectedLine == "" {
		order.AffectedLine = model.LineEndorser
	}
	order.RecomputeExpenses()

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *orderService) GetByNumber(ctx context.Context, number uint64) (*model.Order, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "order")
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter repository.OrderFilter, page, limit int) ([]model.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.orders.List(ctx, filter, page, limit)
}

func (s *orderService) Update(ctx context.Context, number uint64, patch UpdateOrderPatch, actor string) (*model.Order, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "order")
	}
	if order.Status == model.OrderStatusIntegrated || order.Status == model.OrderStatusCanceled {
		return nil, fmt.Errorf("order %d is %s: %w", order.Number, order.Status, ErrInvalidState)
	}

	if patch.Rate != nil {
		order.Rate = *patch.Rate
	}
	if patch.Sector != nil {
		order.Sector = *patch.Sector
	}
	if patch.Expenses != nil {
		order.Expenses = *patch.Expenses
	}
	if patch.Insurance != nil {
		order.Insurance = *patch.Insurance
	}
	if patch.AffectedLine != nil {
		order.AffectedLine = *patch.AffectedLine
	}
	if patch.CreditAcct != nil {
		order.CreditAcct = *patch.CreditAcct
	}
	order.RecomputeExpenses()
	order.Actor = actor

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return order, nil
}

func (s *orderService) Validate(ctx context.Context, number uint64) (*model.Order, *OrderValidationResult, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, nil, wrapNotFound(err, "order")
	}
	checks, err := s.checks.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order checks: %w", err)
	}
	return order, ValidateOrderForIntegration(order, checks), nil
}

// hundred is the upper bound for a nominal percentage rate.
var hundred = decimal.NewFromInt(100)

// ValidateOrderForIntegration is the pure integration gate. It inspects only
// its arguments so the worker and the synchronous path share one rule set.
func ValidateOrderForIntegration(order *model.Order, checks []model.Check) *OrderValidationResult {
	result := &OrderValidationResult{Valid: true, Reasons: []string{}}

	fail := func(reason string) {
		result.Valid = false
		result.Reasons = append(result.Reasons, reason)
	}

	if order.Client.Code == 0 {
		fail("Cliente não informado")
	}
	if !order.Rate.IsPositive() || order.Rate.GreaterThan(hundred) {
		fail("Taxa inválida")
	}
	if !order.Expenses.Total.IsPositive() {
		fail("Gastos devem ser maiores que zero")
	}
	// Every attached check is inspected, whatever its status; a rejected
	// check with a bad document still blocks the order.
	for _, check := range checks {
		if !document.Validate(check.Drawer.Document, check.Drawer.PersonType) {
			fail(fmt.Sprintf("Cheque %s com documento inválido", check.Number))
		}
	}

	return result
}

func (s *orderService) Integrate(ctx context.Context, number uint64, actor string, now time.Time) (*model.Order, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "order")
	}
	if order.Status == model.OrderStatusIntegrated {
		return nil, fmt.Errorf("order %d already INTEGRATED: %w", order.Number, ErrInvalidState)
	}

	checks, err := s.checks.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order checks: %w", err)
	}
	if result := ValidateOrderForIntegration(order, checks); !result.Valid {
		return nil, NewValidationError(result.Reasons...)
	}

	moved, err := s.orders.UpdateStatusIf(ctx, order.ID, model.OrderStatusPending, model.OrderStatusProcessing,
		map[string]interface{}{"actor": actor, "updated_at": now})
	if err != nil {
		return nil, fmt.Errorf("failed to mark order processing: %w", err)
	}
	if !moved {
		return nil, fmt.Errorf("order %d is no longer PENDING: %w", order.Number, ErrInvalidState)
	}

	order.Status = model.OrderStatusProcessing
	order.Actor = actor
	s.queue.EnqueueOrder(order.ID)
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, number uint64, actor string) (*model.Order, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapNotFound(err, "order")
	}
	if order.Status == model.OrderStatusIntegrated {
		return nil, fmt.Errorf("order %d already INTEGRATED: %w", order.Number, ErrInvalidState)
	}

	moved, err := s.orders.UpdateStatusIf(ctx, order.ID, order.Status, model.OrderStatusCanceled,
		map[string]interface{}{"actor": actor})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !moved {
		return nil, fmt.Errorf("order %d changed state concurrently: %w", order.Number, ErrInvalidState)
	}

	order.Status = model.OrderStatusCanceled
	order.Actor = actor
	return order, nil
}
