package service

import (
	"context"
	"errors"

	"backend/internal/geo"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateStoreRequest struct {
	Name         string   `json:"name" binding:"required"`
	Code         string   `json:"code" binding:"required"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Type         string   `json:"type"`
	Address      string   `json:"address"`
	AssignedPCID string   `json:"assigned_pc_id"`
}

type UpdateStoreRequest struct {
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Type         string   `json:"type"`
	Address      string   `json:"address"`
	AssignedPCID string   `json:"assigned_pc_id"`
}

type StoreListFilter struct {
	Type  string
	PCID  string
	Page  int
	Limit int
}

// --- Interface ---

type StoreService interface {
	CreateStore(ctx context.Context, req CreateStoreRequest) (*model.Store, error)
	GetStore(ctx context.Context, id string) (*model.Store, error)
	ListStores(ctx context.Context, filter StoreListFilter) ([]model.Store, int64, error)
	UpdateStore(ctx context.Context, id string, req UpdateStoreRequest) (*model.Store, error)
	DeleteStore(ctx context.Context, id string) error
}

type storeService struct {
	stores repository.StoreRepository
	users  repository.UserRepository
}

func NewStoreService(stores repository.StoreRepository, users repository.UserRepository) StoreService {
	return &storeService{stores: stores, users: users}
}

// --- Implementation ---

// validateGeo requires the coordinates as a pair and inside WGS84 bounds
func validateGeo(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return apperror.Validation("latitude and longitude must be provided together")
	}
	if lat != nil && !geo.ValidCoordinate(*lat, *lng) {
		return apperror.Validation("coordinates out of range")
	}
	return nil
}

func (s *storeService) resolveAssignedPC(ctx context.Context, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("invalid assigned_pc_id")
	}
	pc, err := s.users.GetByID(ctx, id.String())
	if err != nil {
		return nil, apperror.NotFound("assigned PC not found")
	}
	if pc.Role != model.RolePC {
		return nil, apperror.Validation("assigned user is not a PC")
	}
	return &id, nil
}

func (s *storeService) CreateStore(ctx context.Context, req CreateStoreRequest) (*model.Store, error) {
	if err := validateGeo(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	if _, err := s.stores.GetByCode(ctx, req.Code); err == nil {
		return nil, apperror.Conflict("store code already exists")
	}

	assigned, err := s.resolveAssignedPC(ctx, req.AssignedPCID)
	if err != nil {
		return nil, err
	}

	store := &model.Store{
		Name:         req.Name,
		Code:         req.Code,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Type:         req.Type,
		Address:      req.Address,
		AssignedPCID: assigned,
	}
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, apperror.Internal("failed to create store", err)
	}
	return store, nil
}

func (s *storeService) GetStore(ctx context.Context, id string) (*model.Store, error) {
	storeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid store id")
	}
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("store not found")
		}
		return nil, apperror.Internal("failed to load store", err)
	}
	return store, nil
}

func (s *storeService) ListStores(ctx context.Context, filter StoreListFilter) ([]model.Store, int64, error) {
	repoFilter := repository.StoreFilter{Type: filter.Type, Page: filter.Page, Limit: filter.Limit}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}
	if filter.PCID != "" {
		id, err := uuid.Parse(filter.PCID)
		if err != nil {
			return nil, 0, apperror.Validation("invalid pc filter")
		}
		repoFilter.AssignedPCID = &id
	}

	stores, total, err := s.stores.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list stores", err)
	}
	return stores, total, nil
}

func (s *storeService) UpdateStore(ctx context.Context, id string, req UpdateStoreRequest) (*model.Store, error) {
	store, err := s.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateGeo(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	if req.Name != "" {
		store.Name = req.Name
	}
	if req.Latitude != nil {
		store.Latitude = req.Latitude
		store.Longitude = req.Longitude
	}
	if req.Type != "" {
		store.Type = req.Type
	}
	if req.Address != "" {
		store.Address = req.Address
	}
	if req.AssignedPCID != "" {
		assigned, err := s.resolveAssignedPC(ctx, req.AssignedPCID)
		if err != nil {
			return nil, err
		}
		store.AssignedPCID = assigned
	}

	if err := s.stores.Update(ctx, store); err != nil {
		return nil, apperror.Internal("failed to update store", err)
	}
	return store, nil
}

func (s *storeService) DeleteStore(ctx context.Context, id string) error {
	store, err := s.GetStore(ctx, id)
	if err != nil {
		return err
	}
	return s.stores.Delete(ctx, store.ID)
}
