package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is published to connected clients when a background transition
// commits.
type Event struct {
	Entity string `json:"entity"` // order, operation
	Number string `json:"number"`
	Status string `json:"status"`
}

// Notifier pushes integration events out. The websocket hub satisfies it; a
// nil notifier disables publishing.
type Notifier interface {
	Publish(event Event)
}

type jobKind int

const (
	jobOrder jobKind = iota
	jobOperation
)

type job struct {
	kind jobKind
	id   uuid.UUID
}

// Integrator is the background half of the two-phase integration. The
// synchronous side moves an entity to EM_PROCESSAMENTO and enqueues it; this
// worker performs the terminal INTEGRATED or ERROR transition under the same
// optimistic status guard.
type Integrator struct {
	orders     repository.OrderRepository
	checks     repository.CheckRepository
	operations repository.OperationRepository
	clients    repository.ClientRepository
	txm        repository.TransactionManager
	notifier   Notifier

	jobs chan job
	now  func() time.Time
}

func NewIntegrator(
	orders repository.OrderRepository,
	checks repository.CheckRepository,
	operations repository.OperationRepository,
	clients repository.ClientRepository,
	txm repository.TransactionManager,
	notifier Notifier,
) *Integrator {
	return &Integrator{
		orders:     orders,
		checks:     checks,
		operations: operations,
		clients:    clients,
		txm:        txm,
		notifier:   notifier,
		jobs:       make(chan job, 64),
		now:        time.Now,
	}
}

// EnqueueOrder satisfies service.IntegrationQueue.
func (w *Integrator) EnqueueOrder(id uuid.UUID) {
	w.jobs <- job{kind: jobOrder, id: id}
}

// EnqueueOperation satisfies service.IntegrationQueue.
func (w *Integrator) EnqueueOperation(id uuid.UUID) {
	w.jobs <- job{kind: jobOperation, id: id}
}

// Run drains the queue until the context is canceled. Meant to be launched as
// a goroutine from main.
func (w *Integrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.jobs:
			w.process(ctx, j)
		}
	}
}

func (w *Integrator) process(ctx context.Context, j job) {
	switch j.kind {
	case jobOrder:
		if err := w.ProcessOrder(ctx, j.id); err != nil {
			log.Printf("integrator: order %s: %v", j.id, err)
		}
	case jobOperation:
		if err := w.ProcessOperation(ctx, j.id); err != nil {
			log.Printf("integrator: operation %s: %v", j.id, err)
		}
	}
}

// ProcessOrder completes an order integration: it creates the resulting
// operation and flips the order to INTEGRATED inside one transaction. A
// failed status guard (the order was canceled meanwhile) rolls the whole step
// back, leaving no orphan operation. Exported so tests can drive the worker
// synchronously.
func (w *Integrator) ProcessOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if order.Status != model.OrderStatusProcessing {
		return fmt.Errorf("order %d is %s, nothing to complete", order.Number, order.Status)
	}

	client, err := w.clients.FindByCode(ctx, order.Client.Code)
	if err != nil {
		w.failOrder(ctx, order)
		return fmt.Errorf("load client: %w", err)
	}

	checks, err := w.checks.FindByOrderID(ctx, orderID)
	if err != nil {
		w.failOrder(ctx, order)
		return fmt.Errorf("load checks: %w", err)
	}

	active := activeChecks(checks)
	op := w.buildOperation(order, client.ID, active)

	now := w.now()
	err = w.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := w.operations.Create(txCtx, op); err != nil {
			return fmt.Errorf("create operation: %w", err)
		}
		if err := w.operations.AppendLog(txCtx, &model.OperationLogEntry{
			OperationID: op.ID,
			Action:      model.LogActionCreated,
			Actor:       model.ActorSystem,
			Details:     fmt.Sprintf("operation created from order %d", order.Number),
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("log operation creation: %w", err)
		}

		for i := range active {
			active[i].OperationID = &op.ID
			active[i].Status = model.CheckStatusIntegrated
			if err := w.checks.Save(txCtx, &active[i]); err != nil {
				return fmt.Errorf("integrate check %s: %w", active[i].Number, err)
			}
		}

		moved, err := w.orders.UpdateStatusIf(txCtx, order.ID,
			model.OrderStatusProcessing, model.OrderStatusIntegrated,
			map[string]interface{}{
				"operation_number":        op.Number,
				"operation_integrated_at": now,
				"integrated_at":           now,
				"actor":                   model.ActorSystem,
			})
		if err != nil {
			return fmt.Errorf("finalize order: %w", err)
		}
		if !moved {
			return fmt.Errorf("order %d left EM_PROCESSAMENTO during integration", order.Number)
		}
		return nil
	})
	if err != nil {
		w.failOrder(ctx, order)
		return err
	}

	w.publish(Event{Entity: "order", Number: fmt.Sprintf("%d", order.Number), Status: model.OrderStatusIntegrated})
	w.publish(Event{Entity: "operation", Number: op.Number, Status: op.Status})
	return nil
}

// ProcessOperation completes an operation integration: terminal status, stamp
// on its checks and an audit log entry. Exported for synchronous tests.
func (w *Integrator) ProcessOperation(ctx context.Context, operationID uuid.UUID) error {
	op, err := w.operations.FindByID(ctx, operationID)
	if err != nil {
		return fmt.Errorf("load operation: %w", err)
	}
	if op.Status != model.OperationStatusProcessing {
		return fmt.Errorf("operation %s is %s, nothing to complete", op.Number, op.Status)
	}

	now := w.now()
	err = w.txm.RunInTx(ctx, func(txCtx context.Context) error {
		moved, err := w.operations.UpdateStatusIf(txCtx, op.ID,
			model.OperationStatusProcessing, model.OperationStatusIntegrated,
			map[string]interface{}{"integrated_at": now, "actor": model.ActorSystem})
		if err != nil {
			return fmt.Errorf("finalize operation: %w", err)
		}
		if !moved {
			return fmt.Errorf("operation %s left EM_PROCESSAMENTO during integration", op.Number)
		}

		if err := w.checks.IntegrateByOperation(txCtx, op.ID); err != nil {
			return fmt.Errorf("integrate operation checks: %w", err)
		}

		return w.operations.AppendLog(txCtx, &model.OperationLogEntry{
			OperationID: op.ID,
			Action:      model.LogActionIntegrated,
			Actor:       model.ActorSystem,
			CreatedAt:   now,
		})
	})
	if err != nil {
		w.failOperation(ctx, op)
		return err
	}

	w.publish(Event{Entity: "operation", Number: op.Number, Status: model.OperationStatusIntegrated})
	return nil
}

// buildOperation derives the resulting contract from the order snapshot. The
// principal is the sum of the active check amounts; an order without checks
// becomes an account credit.
func (w *Integrator) buildOperation(order *model.Order, clientID uuid.UUID, active []model.Check) *model.Operation {
	principal := decimal.Zero
	for _, check := range active {
		principal = principal.Add(check.Amount)
	}

	opType := model.OperationTypeDiscountCheck
	if len(active) == 0 {
		opType = model.OperationTypeAccountCredit
		principal = order.Expenses.Total
	}

	op := &model.Operation{
		Number:       fmt.Sprintf("OP%d", w.now().UnixMilli()),
		OrderID:      order.ID,
		ClientID:     clientID,
		Type:         opType,
		Capital: model.Capital{
			Principal: principal,
			Expenses:  order.Expenses.Total,
		},
		Rate:         model.Rate{Nominal: order.Rate},
		Insurance:    model.OperationInsurance{Charge: order.Insurance.Charge, Insurer: order.Insurance.Insurer},
		AffectedLine: order.AffectedLine,
		CreditAcct:   order.CreditAcct,
		Status:       model.OperationStatusIntegrated,
		Messages:     []string{},
		Actor:        model.ActorSystem,
	}
	now := w.now()
	op.IntegratedAt = &now
	op.RecomputeDerived()
	return op
}

func activeChecks(checks []model.Check) []model.Check {
	var active []model.Check
	for _, check := range checks {
		switch check.Status {
		case model.CheckStatusRejected, model.CheckStatusCanceled:
			continue
		default:
			active = append(active, check)
		}
	}
	return active
}

// failOrder records the ERROR outcome of a failed completion. The guard keeps
// a concurrent cancel from being clobbered.
func (w *Integrator) failOrder(ctx context.Context, order *model.Order) {
	moved, err := w.orders.UpdateStatusIf(ctx, order.ID,
		model.OrderStatusProcessing, model.OrderStatusError,
		map[string]interface{}{"actor": model.ActorSystem})
	if err != nil || !moved {
		return
	}

	if fresh, err := w.orders.FindByID(ctx, order.ID); err == nil {
		fresh.Messages = append(fresh.Messages, "Erro na integração")
		if err := w.orders.Save(ctx, fresh); err != nil {
			log.Printf("integrator: record order %d error message: %v", order.Number, err)
		}
	}
	w.publish(Event{Entity: "order", Number: fmt.Sprintf("%d", order.Number), Status: model.OrderStatusError})
}

func (w *Integrator) failOperation(ctx context.Context, op *model.Operation) {
	moved, err := w.operations.UpdateStatusIf(ctx, op.ID,
		model.OperationStatusProcessing, model.OperationStatusError,
		map[string]interface{}{"actor": model.ActorSystem})
	if err != nil || !moved {
		return
	}

	if fresh, err := w.operations.FindByID(ctx, op.ID); err == nil {
		fresh.Messages = append(fresh.Messages, "Erro na integração")
		if err := w.operations.Save(ctx, fresh); err != nil {
			log.Printf("integrator: record operation %s error message: %v", op.Number, err)
		}
	}
	if err := w.operations.AppendLog(ctx, &model.OperationLogEntry{
		OperationID: op.ID,
		Action:      model.LogActionError,
		Actor:       model.ActorSystem,
		CreatedAt:   w.now(),
	}); err != nil {
		log.Printf("integrator: log operation %s error: %v", op.Number, err)
	}
	w.publish(Event{Entity: "operation", Number: op.Number, Status: model.OperationStatusError})
}

func (w *Integrator) publish(event Event) {
	if w.notifier != nil {
		w.notifier.Publish(event)
	}
}
