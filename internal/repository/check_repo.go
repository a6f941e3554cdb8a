package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckFilter narrows check listings.
type CheckFilter struct {
	Status   string
	OrderID  *uuid.UUID
	ClientID *uuid.UUID
}

// CheckRepository defines data access for Check entities.
type CheckRepository interface {
	Create(ctx context.Context, check *model.Check) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Check, error)
	FindByNumberAndBank(ctx context.Context, number, bankCode string) (*model.Check, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.Check, error)
	List(ctx context.Context, filter CheckFilter, page, limit int) ([]model.Check, int64, error)
	Save(ctx context.Context, check *model.Check) error
	// UpdateStatusIf atomically moves the check between statuses, guarding on
	// the currently stored one. Extra column updates ride the same statement.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string, extra map[string]interface{}) (bool, error)
	// IntegrateByOperation stamps every check attached to the operation as
	// INTEGRATED, skipping checks already in a terminal state of their own.
	IntegrateByOperation(ctx context.Context, operationID uuid.UUID) error
}

type checkRepository struct {
	db *gorm.DB
}

func NewCheckRepository(db *gorm.DB) CheckRepository {
	return &checkRepository{db: db}
}

func (r *checkRepository) Create(ctx context.Context, check *model.Check) error {
	return GetDB(ctx, r.db).Create(check).Error
}

func (r *checkRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Check, error) {
	var check model.Check
	if err := GetDB(ctx, r.db).First(&check, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &check, nil
}

func (r *checkRepository) FindByNumberAndBank(ctx context.Context, number, bankCode string) (*model.Check, error) {
	var check model.Check
	if err := GetDB(ctx, r.db).First(&check, "number = ? AND bank_code = ?", number, bankCode).Error; err != nil {
		return nil, err
	}
	return &check, nil
}

func (r *checkRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.Check, error) {
	var checks []model.Check
	if err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&checks).Error; err != nil {
		return nil, err
	}
	return checks, nil
}

func (r *checkRepository) List(ctx context.Context, filter CheckFilter, page, limit int) ([]model.Check, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.Check{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.OrderID != nil {
		db = db.Where("order_id = ?", *filter.OrderID)
	}
	if filter.ClientID != nil {
		db = db.Where("client_id = ?", *filter.ClientID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var checks []model.Check
	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&checks).Error; err != nil {
		return nil, 0, err
	}

	return checks, total, nil
}

func (r *checkRepository) Save(ctx context.Context, check *model.Check) error {
	return GetDB(ctx, r.db).Save(check).Error
}

func (r *checkRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := GetDB(ctx, r.db).Model(&model.Check{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *checkRepository) IntegrateByOperation(ctx context.Context, operationID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Check{}).
		Where("operation_id = ? AND status IN ?", operationID,
			[]string{model.CheckStatusPending, model.CheckStatusApproved}).
		Update("status", model.CheckStatusIntegrated).Error
}
