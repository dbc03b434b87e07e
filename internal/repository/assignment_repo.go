package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	CreateBatch(ctx context.Context, assignments []model.TaskAssignment) error
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]model.TaskAssignment, error)
	CompleteIfPending(ctx context.Context, visitID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error)
	DeleteByVisit(ctx context.Context, visitID uuid.UUID) error
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) CreateBatch(ctx context.Context, assignments []model.TaskAssignment) error {
	return GetDB(ctx, r.db).Create(&assignments).Error
}

func (r *assignmentRepository) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	err := GetDB(ctx, r.db).
		Where("visit_id = ?", visitID).
		Order("created_at asc").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// CompleteIfPending flips the (visit, task_type) row to COMPLETED in a single
// conditional UPDATE. Returns false when the row is missing or already
// COMPLETED, which makes duplicate evidence submissions a no-op rather than an
// error or a double count.
func (r *assignmentRepository) CompleteIfPending(ctx context.Context, visitID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.TaskAssignment{}).
		Where("visit_id = ? AND task_type = ? AND status <> ?", visitID, taskType, model.AssignmentCompleted).
		Updates(map[string]interface{}{
			"status":         model.AssignmentCompleted,
			"completed_at":   at,
			"task_record_id": recordID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *assignmentRepository) DeleteByVisit(ctx context.Context, visitID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("visit_id = ?", visitID).Delete(&model.TaskAssignment{}).Error
}
