package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc     OrderService
	orders  *fakeOrderRepo
	checks  *fakeCheckRepo
	clients *fakeClientRepo
	queue   *fakeQueue
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	clients := newFakeClientRepo()
	orders := newFakeOrderRepo()
	checks := newFakeCheckRepo()
	queue := &fakeQueue{}

	client := &model.Client{
		Code:       1001,
		Name:       "Comercial Andrade Ltda",
		PersonType: model.PersonTypeOrganization,
		Document:   "11222333000181",
		Status:     model.ClientStatusActive,
		Branch:     model.Branch{Code: "SP01", Name: "São Paulo Centro"},
	}
	require.NoError(t, clients.Create(context.Background(), client))

	return &orderFixture{
		svc:     NewOrderService(orders, checks, clients, queue),
		orders:  orders,
		checks:  checks,
		clients: clients,
		queue:   queue,
	}
}

func (f *orderFixture) createOrder(t *testing.T, rate float64, expenses int64) *model.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), CreateOrderRequest{
		Number:     7001,
		ClientCode: 1001,
		Rate:       decimal.NewFromFloat(rate),
		Expenses:   model.OrderExpenses{Total: decimal.NewFromInt(expenses)},
	}, "analista", time.Now())
	require.NoError(t, err)
	return order
}

func TestCreateOrderSnapshotsClient(t *testing.T) {
	f := newOrderFixture(t)

	order := f.createOrder(t, 2.5, 500)
	require.Equal(t, model.OrderStatusPending, order.Status)
	require.EqualValues(t, 1001, order.Client.Code)
	require.Equal(t, "Comercial Andrade Ltda", order.Client.Name)
	require.Equal(t, "SP01", order.Branch.Code)
	require.Equal(t, model.LineEndorser, order.AffectedLine)
}

func TestCreateOrderUnknownClient(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Create(context.Background(), CreateOrderRequest{
		ClientCode: 9999,
		Rate:       decimal.NewFromFloat(2.5),
	}, "analista", time.Now())
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateOrderRecomputesExpenseTotal(t *testing.T) {
	f := newOrderFixture(t)
	f.createOrder(t, 2.5, 0)

	patch := UpdateOrderPatch{
		Expenses: &model.OrderExpenses{
			Operation1: decimal.NewFromInt(300),
			Operation2: decimal.NewFromInt(200),
		},
	}
	order, err := f.svc.Update(context.Background(), 7001, patch, "analista")
	require.NoError(t, err)
	require.True(t, order.Expenses.Total.Equal(decimal.NewFromInt(500)))
}

func TestValidateOrderReasons(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t, 150, 0)

	require.NoError(t, f.checks.Create(context.Background(), &model.Check{
		Number:   "000123",
		BankCode: "237",
		Amount:   decimal.NewFromInt(15000),
		Drawer:   model.Party{Name: "João", Document: "11111111111", PersonType: model.PersonTypeIndividual},
		OrderID:  order.ID,
		Status:   model.CheckStatusPending,
	}))

	_, result, err := f.svc.Validate(context.Background(), 7001)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Contains(t, result.Reasons, "Taxa inválida")
	require.Contains(t, result.Reasons, "Gastos devem ser maiores que zero")
	require.Contains(t, result.Reasons, "Cheque 000123 com documento inválido")
}

func TestValidateOrderInspectsRejectedChecks(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t, 2.5, 500)

	// The gate has no status filter: even a rejected check with a bad
	// drawer document blocks the order.
	require.NoError(t, f.checks.Create(context.Background(), &model.Check{
		Number:   "000124",
		BankCode: "237",
		Amount:   decimal.NewFromInt(15000),
		Drawer:   model.Party{Name: "João", Document: "11111111111", PersonType: model.PersonTypeIndividual},
		OrderID:  order.ID,
		Status:   model.CheckStatusRejected,
	}))

	_, result, err := f.svc.Validate(context.Background(), 7001)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Contains(t, result.Reasons, "Cheque 000124 com documento inválido")
}

func TestIntegrateOrderMovesToProcessingAndEnqueues(t *testing.T) {
	f := newOrderFixture(t)
	created := f.createOrder(t, 2.5, 500)

	order, err := f.svc.Integrate(context.Background(), 7001, "analista", time.Now())
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusProcessing, order.Status)
	require.Equal(t, created.ID, f.queue.orders[0])

	stored, err := f.orders.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusProcessing, stored.Status)
}

func TestIntegrateOrderRefusedWhenInvalid(t *testing.T) {
	f := newOrderFixture(t)
	f.createOrder(t, 150, 500)

	_, err := f.svc.Integrate(context.Background(), 7001, "analista", time.Now())
	ve, ok := IsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Reasons, "Taxa inválida")
	require.Empty(t, f.queue.orders)
}

func TestIntegrateOrderAlreadyIntegrated(t *testing.T) {
	f := newOrderFixture(t)
	created := f.createOrder(t, 2.5, 500)

	created.Status = model.OrderStatusIntegrated
	require.NoError(t, f.orders.Save(context.Background(), created))

	_, err := f.svc.Integrate(context.Background(), 7001, "analista", time.Now())
	require.True(t, errors.Is(err, ErrInvalidState))
}

func TestIntegrateOrderLosesGuardRace(t *testing.T) {
	f := newOrderFixture(t)
	created := f.createOrder(t, 2.5, 500)

	// Another caller already moved the order off PENDING.
	created.Status = model.OrderStatusProcessing
	require.NoError(t, f.orders.Save(context.Background(), created))

	_, err := f.svc.Integrate(context.Background(), 7001, "analista", time.Now())
	require.Error(t, err)
	require.Empty(t, f.queue.orders)
}

func TestCancelOrder(t *testing.T) {
	f := newOrderFixture(t)
	created := f.createOrder(t, 2.5, 500)

	order, err := f.svc.Cancel(context.Background(), 7001, "analista")
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusCanceled, order.Status)

	stored, err := f.orders.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusCanceled, stored.Status)
}

func TestCancelOrderRefusedWhenIntegrated(t *testing.T) {
	f := newOrderFixture(t)
	created := f.createOrder(t, 2.5, 500)

	created.Status = model.OrderStatusIntegrated
	require.NoError(t, f.orders.Save(context.Background(), created))

	_, err := f.svc.Cancel(context.Background(), 7001, "analista")
	require.True(t, errors.Is(err, ErrInvalidState))
}

func TestUpdateOrderRefusedInTerminalStates(t *testing.T) {
	f := newOrderFixture(t)
	created := f.createOrder(t, 2.5, 500)

	for _, status := range []string{model.OrderStatusIntegrated, model.OrderStatusCanceled} {
		created.Status = status
		require.NoError(t, f.orders.Save(context.Background(), created))

		rate := decimal.NewFromFloat(3.0)
		_, err := f.svc.Update(context.Background(), 7001, UpdateOrderPatch{Rate: &rate}, "analista")
		require.True(t, errors.Is(err, ErrInvalidState), "status %s", status)
	}
}
