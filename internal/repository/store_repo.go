package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	GetByCode(ctx context.Context, code string) (*model.Store, error)
	List(ctx context.Context, filter StoreFilter) ([]model.Store, int64, error)
	Update(ctx context.Context, store *model.Store) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StoreFilter narrows store listings; AssignedPCID scopes a PC's own stores.
type StoreFilter struct {
	Type         string
	AssignedPCID *uuid.UUID
	Page         int
	Limit        int
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	return GetDB(ctx, r.db).Create(store).Error
}

func (r *storeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var store model.Store
	if err := GetDB(ctx, r.db).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) GetByCode(ctx context.Context, code string) (*model.Store, error) {
	var store model.Store
	if err := GetDB(ctx, r.db).First(&store, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) List(ctx context.Context, filter StoreFilter) ([]model.Store, int64, error) {
	var stores []model.Store
	var total int64

	db := GetDB(ctx, r.db)
	base := db.Model(&model.Store{})
	if filter.Type != "" {
		base = base.Where("type = ?", filter.Type)
	}
	if filter.AssignedPCID != nil {
		base = base.Where("assigned_pc_id = ?", *filter.AssignedPCID)
	}
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := base.Preload("AssignedPC").Order("name asc").Offset(offset).Limit(filter.Limit).Find(&stores).Error; err != nil {
		return nil, 0, err
	}

	return stores, total, nil
}

func (r *storeRepository) Update(ctx context.Context, store *model.Store) error {
	return GetDB(ctx, r.db).Save(store).Error
}

func (r *storeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Store{}).Error
}
