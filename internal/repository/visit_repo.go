package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VisitRepository interface {
	Create(ctx context.Context, visit *model.StoreVisit) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.StoreVisit, error)
	GetOwnedCheckedIn(ctx context.Context, id, pcID uuid.UUID) (*model.StoreVisit, error)
	GetOpenVisit(ctx context.Context, pcID, storeID uuid.UUID, day time.Time) (*model.StoreVisit, error)
	GetCurrentVisit(ctx context.Context, pcID uuid.UUID, day time.Time) (*model.StoreVisit, error)
	Update(ctx context.Context, visit *model.StoreVisit) error
	Delete(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, filter VisitFilter) ([]model.StoreVisit, error)
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]model.StoreVisit, error)
}

// VisitFilter narrows history queries. The 100-row cap is enforced here, not
// left to callers.
type VisitFilter struct {
	PCID    *uuid.UUID
	StoreID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

// historyCap bounds every history query
const historyCap = 100

type visitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.StoreVisit) error {
	return GetDB(ctx, r.db).Create(visit).Error
}

func (r *visitRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StoreVisit, error) {
	var visit model.StoreVisit
	if err := GetDB(ctx, r.db).Preload("Assignments").First(&visit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

// GetOwnedCheckedIn loads a visit only when it belongs to pcID and is still
// open; anything else is gorm.ErrRecordNotFound, including double check-outs.
func (r *visitRepository) GetOwnedCheckedIn(ctx context.Context, id, pcID uuid.UUID) (*model.StoreVisit, error) {
	var visit model.StoreVisit
	err := GetDB(ctx, r.db).Preload("Assignments").
		First(&visit, "id = ? AND pc_id = ? AND status = ?", id, pcID, model.VisitCheckedIn).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// GetOpenVisit finds the CHECKED_IN visit for (pc, store, calendar day), or
// gorm.ErrRecordNotFound.
func (r *visitRepository) GetOpenVisit(ctx context.Context, pcID, storeID uuid.UUID, day time.Time) (*model.StoreVisit, error) {
	var visit model.StoreVisit
	err := GetDB(ctx, r.db).
		Where("pc_id = ? AND store_id = ? AND status = ? AND check_in_time::date = ?::date",
			pcID, storeID, model.VisitCheckedIn, day).
		First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// GetCurrentVisit returns the PC's most recent open visit for the day with its
// checklist loaded, or gorm.ErrRecordNotFound.
func (r *visitRepository) GetCurrentVisit(ctx context.Context, pcID uuid.UUID, day time.Time) (*model.StoreVisit, error) {
	var visit model.StoreVisit
	err := GetDB(ctx, r.db).
		Preload("Assignments").Preload("Store").
		Where("pc_id = ? AND status = ? AND check_in_time::date = ?::date",
			pcID, model.VisitCheckedIn, day).
		Order("check_in_time DESC").
		First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) Update(ctx context.Context, visit *model.StoreVisit) error {
	return GetDB(ctx, r.db).Save(visit).Error
}

func (r *visitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.StoreVisit{}).Error
}

func (r *visitRepository) History(ctx context.Context, filter VisitFilter) ([]model.StoreVisit, error) {
	var visits []model.StoreVisit

	query := GetDB(ctx, r.db).Preload("Store").Preload("PC").Preload("Assignments")
	if filter.PCID != nil {
		query = query.Where("pc_id = ?", *filter.PCID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.From != nil {
		query = query.Where("check_in_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("check_in_time < ?", *filter.To)
	}

	if err := query.Order("check_in_time DESC").Limit(historyCap).Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// ListOpenBefore returns visits still CHECKED_IN that started before cutoff;
// the nightly sweeper closes them.
func (r *visitRepository) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]model.StoreVisit, error) {
	var visits []model.StoreVisit
	err := GetDB(ctx, r.db).
		Where("status = ? AND check_in_time < ?", model.VisitCheckedIn, cutoff).
		Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}
