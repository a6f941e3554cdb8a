package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientFilter narrows client listings.
type ClientFilter struct {
	Status     string
	PersonType string
	BranchCode string
}

// ClientRepository defines data access for Client entities.
type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindByCode(ctx context.Context, code uint64) (*model.Client, error)
	FindByDocument(ctx context.Context, document string) (*model.Client, error)
	List(ctx context.Context, filter ClientFilter, page, limit int) ([]model.Client, int64, error)
	Save(ctx context.Context, client *model.Client) error
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Create(client).Error
}

func (r *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) FindByCode(ctx context.Context, code uint64) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).First(&client, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) FindByDocument(ctx context.Context, document string) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).First(&client, "document = ?", document).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter, page, limit int) ([]model.Client, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.Client{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.PersonType != "" {
		db = db.Where("person_type = ?", filter.PersonType)
	}
	if filter.BranchCode != "" {
		db = db.Where("branch_code = ?", filter.BranchCode)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clients []model.Client
	offset := (page - 1) * limit
	if err := db.Order("code asc").Offset(offset).Limit(limit).Find(&clients).Error; err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

func (r *clientRepository) Save(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Save(client).Error
}
