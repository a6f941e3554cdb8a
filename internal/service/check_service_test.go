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

type checkFixture struct {
	svc     CheckService
	checks  *fakeCheckRepo
	orders  *fakeOrderRepo
	clients *fakeClientRepo
	order   *model.Order
}

func newCheckFixture(t *testing.T) *checkFixture {
	t.Helper()

	clients := newFakeClientRepo()
	orders := newFakeOrderRepo()
	checks := newFakeCheckRepo()

	client := &model.Client{
		Code:       1001,
		Name:       "Comercial Andrade Ltda",
		PersonType: model.PersonTypeOrganization,
		Document:   "11222333000181",
		Status:     model.ClientStatusActive,
	}
	require.NoError(t, clients.Create(context.Background(), client))

	order := &model.Order{
		Number: 7001,
		Client: model.OrderClientRef{Code: 1001, Name: client.Name},
		Rate:   decimal.NewFromFloat(2.5),
		Status: model.OrderStatusPending,
	}
	require.NoError(t, orders.Create(context.Background(), order))

	return &checkFixture{
		svc:     NewCheckService(checks, orders, clients),
		checks:  checks,
		orders:  orders,
		clients: clients,
		order:   order,
	}
}

func futureDate(days int) *time.Time {
	d := time.Now().AddDate(0, 0, days)
	return &d
}

func validCheckRequest() CreateCheckRequest {
	return CreateCheckRequest{
		Number:      "000123",
		BankCode:    "237",
		BankName:    "Bradesco",
		Amount:      decimal.NewFromInt(15000),
		DueDate:     futureDate(30),
		Drawer:      PartyInput{Name: "João Silva", Document: "52998224725", PersonType: model.PersonTypeIndividual},
		OrderNumber: 7001,
	}
}

func TestCreateCheck(t *testing.T) {
	f := newCheckFixture(t)

	check, err := f.svc.Create(context.Background(), validCheckRequest(), "analista")
	require.NoError(t, err)
	require.Equal(t, model.CheckStatusPending, check.Status)
	require.Equal(t, f.order.ID, check.OrderID)
	require.True(t, check.Validations.DocumentValid)
	require.Equal(t, "analista", check.Actor)
}

func TestCreateCheckDuplicateNumberAndBank(t *testing.T) {
	f := newCheckFixture(t)

	_, err := f.svc.Create(context.Background(), validCheckRequest(), "analista")
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), validCheckRequest(), "analista")
	require.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestCreateCheckUnknownOrder(t *testing.T) {
	f := newCheckFixture(t)

	req := validCheckRequest()
	req.OrderNumber = 9999
	_, err := f.svc.Create(context.Background(), req, "analista")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestValidateCheckIsIdempotent(t *testing.T) {
	f := newCheckFixture(t)

	req := validCheckRequest()
	req.Drawer.Document = "11111111111"
	created, err := f.svc.Create(context.Background(), req, "analista")
	require.NoError(t, err)

	now := time.Now()
	first, err := f.svc.Validate(context.Background(), created.ID, now)
	require.NoError(t, err)
	require.False(t, first.Validations.DocumentValid)
	require.Contains(t, first.Messages, "Cheque 000123 com documento inválido")

	second, err := f.svc.Validate(context.Background(), created.ID, now)
	require.NoError(t, err)
	require.Equal(t, first.Validations, second.Validations)
	require.Equal(t, first.Messages, second.Messages)
}

func TestCheckWithoutDueDateIsValid(t *testing.T) {
	f := newCheckFixture(t)

	req := validCheckRequest()
	req.DueDate = nil
	created, err := f.svc.Create(context.Background(), req, "analista")
	require.NoError(t, err)

	validated, err := f.svc.Validate(context.Background(), created.ID, time.Now())
	require.NoError(t, err)
	require.True(t, validated.Validations.DueDateValid)
	require.NotContains(t, validated.Messages, "Cheque 000123 com data de vencimento inválida")

	approved, err := f.svc.Approve(context.Background(), created.ID, "analista", time.Now())
	require.NoError(t, err)
	require.Equal(t, model.CheckStatusApproved, approved.Status)
}

func TestValidatePartyCompleteness(t *testing.T) {
	f := newCheckFixture(t)

	req := validCheckRequest()
	req.Drawer.Document = "11111111111" // fails the checksum but is present
	req.Endorser = &PartyInput{Name: "Maria Souza"}
	created, err := f.svc.Create(context.Background(), req, "analista")
	require.NoError(t, err)

	validated, err := f.svc.Validate(context.Background(), created.ID, time.Now())
	require.NoError(t, err)
	require.False(t, validated.Validations.DocumentValid)
	require.True(t, validated.Validations.DrawerValid)
	require.False(t, validated.Validations.EndorserValid)
	require.Contains(t, validated.Messages, "Cheque 000123 com endossante inválido")

	noDoc := PartyInput{Name: "João Silva", PersonType: model.PersonTypeIndividual}
	_, err = f.svc.Update(context.Background(), created.ID, UpdateCheckPatch{Drawer: &noDoc}, "analista")
	require.NoError(t, err)

	revalidated, err := f.svc.Validate(context.Background(), created.ID, time.Now())
	require.NoError(t, err)
	require.False(t, revalidated.Validations.DrawerValid)
	require.Contains(t, revalidated.Messages, "Cheque 000123 com emitente inválido")
}

func TestApproveCheck(t *testing.T) {
	f := newCheckFixture(t)

	created, err := f.svc.Create(context.Background(), validCheckRequest(), "analista")
	require.NoError(t, err)

	approved, err := f.svc.Approve(context.Background(), created.ID, "analista", time.Now())
	require.NoError(t, err)
	require.Equal(t, model.CheckStatusApproved, approved.Status)
	require.NotNil(t, approved.ProcessedAt)
}

func TestApproveCheckExpiredDueDate(t *testing.T) {
	f := newCheckFixture(t)

	req := validCheckRequest()
	req.DueDate = futureDate(-1)
	created, err := f.svc.Create(context.Background(), req, "analista")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), created.ID, "analista", time.Now())
	ve, ok := IsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Reasons, "Cheque 000123 com data de vencimento inválida")
}

func TestApproveCheckOnlyFromPending(t *testing.T) {
	f := newCheckFixture(t)

	created, err := f.svc.Create(context.Background(), validCheckRequest(), "analista")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), created.ID, "analista", time.Now())
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), created.ID, "analista", time.Now())
	require.True(t, errors.Is(err, ErrInvalidState))
}

func TestRejectCheckRequiresReason(t *testing.T) {
	f := newCheckFixture(t)

	created, err := f.svc.Create(context.Background(), validCheckRequest(), "analista")
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), created.ID, "", "analista", time.Now())
	_, ok := IsValidationError(err)
	require.True(t, ok)

	rejected, err := f.svc.Reject(context.Background(), created.ID, "assinatura divergente", "analista", time.Now())
	require.NoError(t, err)
	require.Equal(t, model.CheckStatusRejected, rejected.Status)
	require.Contains(t, rejected.Messages, "Rejected: assinatura divergente")
}

func TestIntegratedCheckLocksEverything(t *testing.T) {
	f := newCheckFixture(t)

	created, err := f.svc.Create(context.Background(), validCheckRequest(), "analista")
	require.NoError(t, err)

	created.Status = model.CheckStatusIntegrated
	require.NoError(t, f.checks.Save(context.Background(), created))

	newAmount := decimal.NewFromInt(99)
	_, err = f.svc.Update(context.Background(), created.ID, UpdateCheckPatch{Amount: &newAmount}, "analista")
	require.True(t, errors.Is(err, ErrInvalidState))

	_, err = f.svc.Reject(context.Background(), created.ID, "qualquer", "analista", time.Now())
	require.True(t, errors.Is(err, ErrInvalidState))

	_, err = f.svc.Cancel(context.Background(), created.ID, "analista", time.Now())
	require.True(t, errors.Is(err, ErrInvalidState))
}

func TestUpdateCheckRecomputesDocumentFlag(t *testing.T) {
	f := newCheckFixture(t)

	created, err := f.svc.Create(context.Background(), validCheckRequest(), "analista")
	require.NoError(t, err)
	require.True(t, created.Validations.DocumentValid)

	badDrawer := PartyInput{Name: "João Silva", Document: "11111111111", PersonType: model.PersonTypeIndividual}
	updated, err := f.svc.Update(context.Background(), created.ID, UpdateCheckPatch{Drawer: &badDrawer}, "analista")
	require.NoError(t, err)
	require.False(t, updated.Validations.DocumentValid)
}
