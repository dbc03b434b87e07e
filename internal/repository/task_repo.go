package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository interface {
	CreateBatch(ctx context.Context, batch *model.TaskBatch) error
	CreateTasks(ctx context.Context, tasks []model.Task) error
	GetBatchByID(ctx context.Context, id uuid.UUID) (*model.TaskBatch, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]model.Task, int64, error)
	ListActiveForPC(ctx context.Context, pcID uuid.UUID, day time.Time) ([]model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
}

// TaskFilter narrows scheduled-task listings
type TaskFilter struct {
	AssignedTo *uuid.UUID
	StoreID    *uuid.UUID
	Status     string
	Page       int
	Limit      int
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) CreateBatch(ctx context.Context, batch *model.TaskBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *taskRepository) CreateTasks(ctx context.Context, tasks []model.Task) error {
	return GetDB(ctx, r.db).Create(&tasks).Error
}

func (r *taskRepository) GetBatchByID(ctx context.Context, id uuid.UUID) (*model.TaskBatch, error) {
	var batch model.TaskBatch
	if err := GetDB(ctx, r.db).Preload("Tasks").Preload("Store").First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *taskRepository) GetTaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := GetDB(ctx, r.db).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, int64, error) {
	var tasks []model.Task
	var total int64

	db := GetDB(ctx, r.db)
	base := db.Model(&model.Task{})
	if filter.AssignedTo != nil {
		base = base.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.StoreID != nil {
		base = base.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := base.Preload("Store").Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListActiveForPC returns the PC's non-terminal tasks live on the given day:
// dated for that day, or inside their [active_from, active_to] window. This
// feeds the "which stores can I check into today" signal.
func (r *taskRepository) ListActiveForPC(ctx context.Context, pcID uuid.UUID, day time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := GetDB(ctx, r.db).
		Preload("Store").
		Where("assigned_to = ?", pcID).
		Where("status NOT IN ?", []string{model.TaskApproved, model.TaskRejected, model.TaskCancelled}).
		Where("(task_date = ?::date) OR (task_date IS NULL AND active_from <= ?::date AND active_to >= ?::date)",
			day, day, day).
		Order("due_date asc NULLS LAST").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) UpdateTask(ctx context.Context, task *model.Task) error {
	return GetDB(ctx, r.db).Save(task).Error
}
