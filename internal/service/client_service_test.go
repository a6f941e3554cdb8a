package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func validRegisterRequest() RegisterClientRequest {
	return RegisterClientRequest{
		Code:       1001,
		Name:       "Comercial Andrade Ltda",
		PersonType: model.PersonTypeOrganization,
		Document:   "11222333000181",
		Drawer:     &CreditLineInput{Ceiling: decimal.NewFromInt(50000)},
		Endorser:   &CreditLineInput{Ceiling: decimal.NewFromInt(80000)},
	}
}

func TestRegisterClient(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)

	client, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	require.Equal(t, model.ClientStatusActive, client.Status)
	require.True(t, client.DrawerLine.Ceiling.Equal(decimal.NewFromInt(50000)))

	stored, err := repo.FindByCode(context.Background(), 1001)
	require.NoError(t, err)
	require.Equal(t, client.ID, stored.ID)
}

func TestRegisterClientRejectsInvalidDocument(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	req := validRegisterRequest()
	req.Document = "11222333000180"
	_, err := svc.Register(context.Background(), req)

	ve, ok := IsValidationError(err)
	require.True(t, ok)
	require.NotEmpty(t, ve.Reasons)
}

func TestRegisterClientDuplicateCode(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	dup := validRegisterRequest()
	dup.Document = "34028316000103"
	_, err = svc.Register(context.Background(), dup)
	require.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestRegisterClientDuplicateDocument(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	dup := validRegisterRequest()
	dup.Code = 1002
	_, err = svc.Register(context.Background(), dup)
	require.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestDeactivateClient(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	client, err := svc.Deactivate(context.Background(), 1001)
	require.NoError(t, err)
	require.Equal(t, model.ClientStatusInactive, client.Status)
}

func TestSetActivityOrganizationFloor(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, err = svc.SetActivity(context.Background(), 1001, model.Activity{Code: 5000, Description: "varejo"})
	_, ok := IsValidationError(err)
	require.True(t, ok)

	client, err := svc.SetActivity(context.Background(), 1001, model.Activity{Code: 472100, Description: "varejo"})
	require.NoError(t, err)
	require.EqualValues(t, 472100, client.Activity.Code)
}

func TestSetActivityIndividualHasNoFloor(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	req := validRegisterRequest()
	req.Code = 2001
	req.PersonType = model.PersonTypeIndividual
	req.Document = "52998224725"
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	client, err := svc.SetActivity(context.Background(), 2001, model.Activity{Code: 5000})
	require.NoError(t, err)
	require.EqualValues(t, 5000, client.Activity.Code)
}

func TestValidateClientCapacity(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, validation, err := svc.Validate(context.Background(), 1001, model.LineEndorser, decimal.NewFromInt(60000))
	require.NoError(t, err)
	require.True(t, validation.Valid)
	require.True(t, validation.Capacity.Sufficient)

	_, validation, err = svc.Validate(context.Background(), 1001, model.LineDrawer, decimal.NewFromInt(60000))
	require.NoError(t, err)
	require.False(t, validation.Valid)
	require.False(t, validation.Capacity.Sufficient)
	require.Contains(t, validation.Reasons, "Linha de crédito DRAWER insuficiente")
}

func TestValidateClientRestrictionsAndStatus(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)

	client, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	client.Restrictions = []string{"Protesto em aberto"}
	client.Status = model.ClientStatusBlocked
	require.NoError(t, repo.Save(context.Background(), client))

	_, validation, err := svc.Validate(context.Background(), 1001, "", decimal.Zero)
	require.NoError(t, err)
	require.False(t, validation.Valid)
	require.Contains(t, validation.Reasons, "Protesto em aberto")
	require.Contains(t, validation.Reasons, "Cliente com status: BLOCKED")
}

func TestValidateClientNotFound(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	_, _, err := svc.Validate(context.Background(), 9999, "", decimal.Zero)
	require.True(t, errors.Is(err, ErrNotFound))
}
