package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OperationFilter narrows operation listings.
type OperationFilter struct {
	Status   string
	Type     string
	ClientID *uuid.UUID
	OrderID  *uuid.UUID
}

// OperationRepository defines data access for Operation entities and their
// append-only log.
type OperationRepository interface {
	Create(ctx context.Context, op *model.Operation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Operation, error)
	FindByNumber(ctx context.Context, number string) (*model.Operation, error)
	List(ctx context.Context, filter OperationFilter, page, limit int) ([]model.Operation, int64, error)
	Save(ctx context.Context, op *model.Operation) error
	// UpdateStatusIf atomically moves the operation between statuses, guarding
	// on the currently stored one.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string, extra map[string]interface{}) (bool, error)
	AppendLog(ctx context.Context, entry *model.OperationLogEntry) error
}

type operationRepository struct {
	db *gorm.DB
}

func NewOperationRepository(db *gorm.DB) OperationRepository {
	return &operationRepository{db: db}
}

func (r *operationRepository) Create(ctx context.Context, op *model.Operation) error {
	return GetDB(ctx, r.db).Create(op).Error
}

func (r *operationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	var op model.Operation
	if err := GetDB(ctx, r.db).
		Preload("Checks").
		Preload("Log", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&op, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operationRepository) FindByNumber(ctx context.Context, number string) (*model.Operation, error) {
	var op model.Operation
	if err := GetDB(ctx, r.db).
		Preload("Checks").
		Preload("Log", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&op, "number = ?", number).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operationRepository) List(ctx context.Context, filter OperationFilter, page, limit int) ([]model.Operation, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.Operation{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.ClientID != nil {
		db = db.Where("client_id = ?", *filter.ClientID)
	}
	if filter.OrderID != nil {
		db = db.Where("order_id = ?", *filter.OrderID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ops []model.Operation
	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&ops).Error; err != nil {
		return nil, 0, err
	}

	return ops, total, nil
}

func (r *operationRepository) Save(ctx context.Context, op *model.Operation) error {
	return GetDB(ctx, r.db).Save(op).Error
}

func (r *operationRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := GetDB(ctx, r.db).Model(&model.Operation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *operationRepository) AppendLog(ctx context.Context, entry *model.OperationLogEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}
