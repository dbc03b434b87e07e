package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Evidence kinds as they appear in approval URLs. The kind decides which table
// an id refers to; ids are never assumed unique across the evidence tables.
const (
	KindOSA     = "osa"
	KindDisplay = "display"
	KindSurvey  = "survey"
)

// KindToTaskType maps an evidence kind to its checklist task type
var KindToTaskType = map[string]string{
	KindOSA:     model.TaskTypeOSA,
	KindDisplay: model.TaskTypeDisplay,
	KindSurvey:  model.TaskTypeSurvey,
}

// ValidKind reports whether kind names one of the reviewable evidence tables
func ValidKind(kind string) bool {
	_, ok := KindToTaskType[kind]
	return ok
}

// ApprovalItem is the flattened cross-type view the supervisor screens consume.
type ApprovalItem struct {
	Kind            string     `json:"kind"`
	ID              uuid.UUID  `json:"id"`
	StoreID         uuid.UUID  `json:"store_id"`
	StoreName       string     `json:"store_name"`
	StoreCode       string     `json:"store_code"`
	PCID            uuid.UUID  `json:"pc_id"`
	PCName          string     `json:"pc_name"`
	VisitID         *uuid.UUID `json:"visit_id"`
	VisitTime       *time.Time `json:"visit_time"`
	PhotoURL        string     `json:"photo_url"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ReviewerName    string     `json:"reviewer_name,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

// EvidenceFilter narrows pending-approval queries
type EvidenceFilter struct {
	PCID    *uuid.UUID
	StoreID *uuid.UUID
}

type EvidenceRepository interface {
	CreateOSA(ctx context.Context, rec *model.OSARecord) error
	CreateDisplay(ctx context.Context, rec *model.Display) error
	CreateSurvey(ctx context.Context, rec *model.Survey) error
	CreatePromotion(ctx context.Context, rec *model.Promotion) error
	GetStatus(ctx context.Context, kind string, id uuid.UUID) (string, error)
	MarkReviewed(ctx context.Context, kind string, id uuid.UUID, status string, reviewerID uuid.UUID, at time.Time, reason string) (bool, error)
	ListByStatus(ctx context.Context, status string, filter EvidenceFilter) ([]ApprovalItem, error)
	CountByStatus(ctx context.Context) (map[string]map[string]int64, error)
}

type evidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) EvidenceRepository {
	return &evidenceRepository{db: db}
}

func (r *evidenceRepository) CreateOSA(ctx context.Context, rec *model.OSARecord) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func (r *evidenceRepository) CreateDisplay(ctx context.Context, rec *model.Display) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func (r *evidenceRepository) CreateSurvey(ctx context.Context, rec *model.Survey) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func (r *evidenceRepository) CreatePromotion(ctx context.Context, rec *model.Promotion) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func modelForKind(kind string) (interface{}, error) {
	switch kind {
	case KindOSA:
		return &model.OSARecord{}, nil
	case KindDisplay:
		return &model.Display{}, nil
	case KindSurvey:
		return &model.Survey{}, nil
	}
	return nil, fmt.Errorf("unknown evidence kind %q", kind)
}

func (r *evidenceRepository) GetStatus(ctx context.Context, kind string, id uuid.UUID) (string, error) {
	m, err := modelForKind(kind)
	if err != nil {
		return "", err
	}
	var statuses []string
	err = GetDB(ctx, r.db).Model(m).Where("id = ?", id).Limit(1).Pluck("status", &statuses).Error
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return statuses[0], nil
}

// MarkReviewed performs the PENDING → APPROVED/REJECTED transition as one
// conditional UPDATE; false means the record was not PENDING anymore (or never
// existed), so terminal states can never be overwritten.
func (r *evidenceRepository) MarkReviewed(ctx context.Context, kind string, id uuid.UUID, status string, reviewerID uuid.UUID, at time.Time, reason string) (bool, error) {
	m, err := modelForKind(kind)
	if err != nil {
		return false, err
	}
	result := GetDB(ctx, r.db).Model(m).
		Where("id = ? AND status = ?", id, model.ReviewPending).
		Updates(map[string]interface{}{
			"status":           status,
			"reviewed_by":      reviewerID,
			"reviewed_at":      at,
			"rejection_reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *evidenceRepository) ListByStatus(ctx context.Context, status string, filter EvidenceFilter) ([]ApprovalItem, error) {
	db := GetDB(ctx, r.db)

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("status = ?", status)
		if filter.PCID != nil {
			q = q.Where("pc_id = ?", *filter.PCID)
		}
		if filter.StoreID != nil {
			q = q.Where("store_id = ?", *filter.StoreID)
		}
		return q.Preload("Store").Preload("PC").Preload("Visit").Preload("Reviewer").Order("created_at DESC")
	}

	var items []ApprovalItem

	var osa []model.OSARecord
	if err := scope(db).Find(&osa).Error; err != nil {
		return nil, err
	}
	for _, rec := range osa {
		items = append(items, flatten(KindOSA, rec.ID, rec.StoreID, rec.Store, rec.PCID, rec.PC,
			rec.VisitID, rec.Visit, rec.PhotoURL, rec.ReviewFields, rec.CreatedAt))
	}

	var displays []model.Display
	if err := scope(db).Find(&displays).Error; err != nil {
		return nil, err
	}
	for _, rec := range displays {
		items = append(items, flatten(KindDisplay, rec.ID, rec.StoreID, rec.Store, rec.PCID, rec.PC,
			rec.VisitID, rec.Visit, rec.PhotoURL, rec.ReviewFields, rec.CreatedAt))
	}

	var surveys []model.Survey
	if err := scope(db).Find(&surveys).Error; err != nil {
		return nil, err
	}
	for _, rec := range surveys {
		items = append(items, flatten(KindSurvey, rec.ID, rec.StoreID, rec.Store, rec.PCID, rec.PC,
			rec.VisitID, rec.Visit, rec.PhotoURL, rec.ReviewFields, rec.CreatedAt))
	}

	return items, nil
}

func flatten(kind string, id, storeID uuid.UUID, store *model.Store, pcID uuid.UUID, pc *model.User,
	visitID *uuid.UUID, visit *model.StoreVisit, photoURL string, review model.ReviewFields, createdAt time.Time) ApprovalItem {
	item := ApprovalItem{
		Kind:            kind,
		ID:              id,
		StoreID:         storeID,
		PCID:            pcID,
		VisitID:         visitID,
		PhotoURL:        photoURL,
		Status:          review.Status,
		RejectionReason: review.RejectionReason,
		CreatedAt:       createdAt,
		ReviewedAt:      review.ReviewedAt,
	}
	if store != nil {
		item.StoreName = store.Name
		item.StoreCode = store.Code
	}
	if pc != nil {
		item.PCName = pc.Username
	}
	if visit != nil {
		t := visit.CheckInTime
		item.VisitTime = &t
	}
	if review.Reviewer != nil {
		item.ReviewerName = review.Reviewer.Username
	}
	return item
}

func (r *evidenceRepository) CountByStatus(ctx context.Context) (map[string]map[string]int64, error) {
	db := GetDB(ctx, r.db)
	stats := make(map[string]map[string]int64)

	type row struct {
		Status string
		Count  int64
	}
	for kind, m := range map[string]interface{}{
		KindOSA:     &model.OSARecord{},
		KindDisplay: &model.Display{},
		KindSurvey:  &model.Survey{},
	} {
		var rows []row
		err := db.Model(m).Select("status, count(*) as count").Group("status").Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		stats[kind] = make(map[string]int64)
		for _, rw := range rows {
			stats[kind][rw.Status] = rw.Count
		}
	}

	return stats, nil
}
