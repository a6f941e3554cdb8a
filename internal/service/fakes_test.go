package service

import (
	"context"
	"sync"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repositories backing the service tests. Lookups miss with
// gorm.ErrRecordNotFound so the services' error mapping is exercised for
// real.

type fakeClientRepo struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*model.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *fakeClientRepo) Create(_ context.Context, client *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

func (r *fakeClientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[id]; ok {
		cp := *client
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClientRepo) FindByCode(_ context.Context, code uint64) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, client := range r.clients {
		if client.Code == code {
			cp := *client
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClientRepo) FindByDocument(_ context.Context, document string) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, client := range r.clients {
		if client.Document == document {
			cp := *client
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClientRepo) List(_ context.Context, filter repository.ClientFilter, page, limit int) ([]model.Client, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Client
	for _, client := range r.clients {
		if filter.Status != "" && client.Status != filter.Status {
			continue
		}
		if filter.PersonType != "" && client.PersonType != filter.PersonType {
			continue
		}
		out = append(out, *client)
	}
	return out, int64(len(out)), nil
}

func (r *fakeClientRepo) Save(_ context.Context, client *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok {
		cp := *order
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) FindByNumber(_ context.Context, number uint64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.Number == number {
			cp := *order
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) List(_ context.Context, filter repository.OrderFilter, page, limit int) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, order := range r.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		out = append(out, *order)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, from, to string, extra map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	if actor, ok := extra["actor"].(string); ok {
		order.Actor = actor
	}
	return true, nil
}

type fakeCheckRepo struct {
	mu     sync.Mutex
	checks map[uuid.UUID]*model.Check
}

func newFakeCheckRepo() *fakeCheckRepo {
	return &fakeCheckRepo{checks: make(map[uuid.UUID]*model.Check)}
}

func (r *fakeCheckRepo) Create(_ context.Context, check *model.Check) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if check.ID == uuid.Nil {
		check.ID = uuid.New()
	}
	cp := *check
	r.checks[check.ID] = &cp
	return nil
}

func (r *fakeCheckRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if check, ok := r.checks[id]; ok {
		cp := *check
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCheckRepo) FindByNumberAndBank(_ context.Context, number, bankCode string) (*model.Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, check := range r.checks {
		if check.Number == number && check.BankCode == bankCode {
			cp := *check
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCheckRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]model.Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Check
	for _, check := range r.checks {
		if check.OrderID == orderID {
			out = append(out, *check)
		}
	}
	return out, nil
}

func (r *fakeCheckRepo) List(_ context.Context, filter repository.CheckFilter, page, limit int) ([]model.Check, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Check
	for _, check := range r.checks {
		if filter.Status != "" && check.Status != filter.Status {
			continue
		}
		out = append(out, *check)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCheckRepo) Save(_ context.Context, check *model.Check) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *check
	r.checks[check.ID] = &cp
	return nil
}

func (r *fakeCheckRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, from, to string, extra map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	check, ok := r.checks[id]
	if !ok || check.Status != from {
		return false, nil
	}
	check.Status = to
	return true, nil
}

func (r *fakeCheckRepo) IntegrateByOperation(_ context.Context, operationID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, check := range r.checks {
		if check.OperationID == nil || *check.OperationID != operationID {
			continue
		}
		if check.Status == model.CheckStatusPending || check.Status == model.CheckStatusApproved {
			check.Status = model.CheckStatusIntegrated
		}
	}
	return nil
}

type fakeOperationRepo struct {
	mu         sync.Mutex
	operations map[uuid.UUID]*model.Operation
	log        []model.OperationLogEntry
}

func newFakeOperationRepo() *fakeOperationRepo {
	return &fakeOperationRepo{operations: make(map[uuid.UUID]*model.Operation)}
}

func (r *fakeOperationRepo) Create(_ context.Context, op *model.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	cp := *op
	r.operations[op.ID] = &cp
	return nil
}

func (r *fakeOperationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op, ok := r.operations[id]; ok {
		cp := *op
		cp.Log = r.logFor(id)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOperationRepo) FindByNumber(_ context.Context, number string) (*model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range r.operations {
		if op.Number == number {
			cp := *op
			cp.Log = r.logFor(op.ID)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOperationRepo) logFor(id uuid.UUID) []model.OperationLogEntry {
	var entries []model.OperationLogEntry
	for _, entry := range r.log {
		if entry.OperationID == id {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (r *fakeOperationRepo) List(_ context.Context, filter repository.OperationFilter, page, limit int) ([]model.Operation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Operation
	for _, op := range r.operations {
		if filter.Status != "" && op.Status != filter.Status {
			continue
		}
		out = append(out, *op)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOperationRepo) Save(_ context.Context, op *model.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *op
	r.operations[op.ID] = &cp
	return nil
}

func (r *fakeOperationRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, from, to string, extra map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.operations[id]
	if !ok || op.Status != from {
		return false, nil
	}
	op.Status = to
	if actor, ok := extra["actor"].(string); ok {
		op.Actor = actor
	}
	return true, nil
}

func (r *fakeOperationRepo) AppendLog(_ context.Context, entry *model.OperationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.log = append(r.log, *entry)
	return nil
}

// fakeQueue records enqueued jobs instead of processing them.
type fakeQueue struct {
	mu         sync.Mutex
	orders     []uuid.UUID
	operations []uuid.UUID
}

func (q *fakeQueue) EnqueueOrder(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.orders = append(q.orders, id)
}

func (q *fakeQueue) EnqueueOperation(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.operations = append(q.operations, id)
}
