package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaskDTO struct {
	Type        string   `json:"type" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	TaskDate    string   `json:"task_date"`   // YYYY-MM-DD; mutually exclusive with the window
	ActiveFrom  string   `json:"active_from"` // YYYY-MM-DD
	ActiveTo    string   `json:"active_to"`   // YYYY-MM-DD
	DueDate     string   `json:"due_date"`    // RFC3339 or YYYY-MM-DD
	Priority    string   `json:"priority"`
	Attachments []string `json:"attachments"`
}

type CreateTaskBatchDTO struct {
	AssignedToPCID string          `json:"assignedToPcId" binding:"required"`
	StoreID        string          `json:"storeId" binding:"required"`
	Note           string          `json:"note"`
	Tasks          []CreateTaskDTO `json:"tasks" binding:"required,min=1"`
}

type UpdateTaskStatusDTO struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type TaskListFilter struct {
	AssignedTo string
	StoreID    string
	Status     string
	Page       int
	Limit      int
}

// StoreEligibility groups a PC's live scheduled tasks under their store: the
// mobile client's "which stores can I check into today" signal.
type StoreEligibility struct {
	StoreID   uuid.UUID    `json:"store_id"`
	StoreName string       `json:"store_name"`
	StoreCode string       `json:"store_code"`
	Tasks     []model.Task `json:"tasks"`
}

// --- Interface ---

type TaskService interface {
	CreateTaskBatch(ctx context.Context, assignerID string, req CreateTaskBatchDTO) (*model.TaskBatch, error)
	UpdateTaskStatus(ctx context.Context, taskID, actorID, actorRole string, req UpdateTaskStatusDTO) (*model.Task, error)
	ListTasks(ctx context.Context, actorID, actorRole string, filter TaskListFilter) ([]model.Task, int64, error)
	GetCheckinEligibility(ctx context.Context, pcID string) ([]StoreEligibility, error)
}

// pcAllowedStatuses and supervisorAllowedStatuses define the role-gated
// transition sets. Anything outside the actor's set is forbidden, not invalid.
var (
	pcAllowedStatuses         = map[string]bool{model.TaskInProgress: true, model.TaskSubmitted: true, model.TaskCompleted: true}
	supervisorAllowedStatuses = map[string]bool{model.TaskApproved: true, model.TaskRejected: true}
)

type taskService struct {
	tasks    repository.TaskRepository
	stores   repository.StoreRepository
	users    repository.UserRepository
	audit    repository.AuditRepository
	tx       repository.TransactionManager
	notifier Notifier
	now      func() time.Time
}

func NewTaskService(
	tasks repository.TaskRepository,
	stores repository.StoreRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	tx repository.TransactionManager,
	notifier Notifier,
) TaskService {
	return &taskService{
		tasks:    tasks,
		stores:   stores,
		users:    users,
		audit:    audit,
		tx:       tx,
		notifier: notifier,
		now:      time.Now,
	}
}

// --- Implementation ---

func parseDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *taskService) CreateTaskBatch(ctx context.Context, assignerID string, req CreateTaskBatchDTO) (*model.TaskBatch, error) {
	assigner, err := uuid.Parse(assignerID)
	if err != nil {
		return nil, apperror.Validation("invalid assigner id")
	}
	assignee, err := uuid.Parse(req.AssignedToPCID)
	if err != nil {
		return nil, apperror.Validation("invalid assignedToPcId")
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, apperror.Validation("invalid storeId")
	}
	if len(req.Tasks) == 0 {
		return nil, apperror.Validation("a batch needs at least one task")
	}

	pc, err := s.users.GetByID(ctx, assignee.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("assignee not found")
		}
		return nil, apperror.Internal("failed to load assignee", err)
	}
	if pc.Role != model.RolePC {
		return nil, apperror.Validation("tasks can only be assigned to PC users")
	}
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("store not found")
		}
		return nil, apperror.Internal("failed to load store", err)
	}

	// Validate every task before touching the database so a bad entry cannot
	// leave a half-written batch behind; the transaction still backs this up.
	tasks := make([]model.Task, 0, len(req.Tasks))
	for i, dto := range req.Tasks {
		if !model.ValidScheduledTaskType(dto.Type) {
			return nil, apperror.Validation(fmt.Sprintf("tasks[%d]: unknown type %q", i, dto.Type))
		}
		if strings.TrimSpace(dto.Title) == "" {
			return nil, apperror.Validation(fmt.Sprintf("tasks[%d]: title is required", i))
		}

		taskDate, err := parseDay(dto.TaskDate)
		if err != nil {
			return nil, apperror.Validation(fmt.Sprintf("tasks[%d]: invalid task_date", i))
		}
		activeFrom, err := parseDay(dto.ActiveFrom)
		if err != nil {
			return nil, apperror.Validation(fmt.Sprintf("tasks[%d]: invalid active_from", i))
		}
		activeTo, err := parseDay(dto.ActiveTo)
		if err != nil {
			return nil, apperror.Validation(fmt.Sprintf("tasks[%d]: invalid active_to", i))
		}
		if taskDate == nil && (activeFrom == nil || activeTo == nil) {
			return nil, apperror.Validation(fmt.Sprintf("tasks[%d]: either task_date or both active_from and active_to are required", i))
		}
		if activeFrom != nil && activeTo != nil && activeTo.Before(*activeFrom) {
			return nil, apperror.Validation(fmt.Sprintf("tasks[%d]: active_to is before active_from", i))
		}

		var dueDate *time.Time
		if dto.DueDate != "" {
			t, err := time.Parse(time.RFC3339, dto.DueDate)
			if err != nil {
				if d, dayErr := parseDay(dto.DueDate); dayErr == nil {
					t = *d
				} else {
					return nil, apperror.Validation(fmt.Sprintf("tasks[%d]: invalid due_date", i))
				}
			}
			dueDate = &t
		}

		priority := dto.Priority
		if priority == "" {
			priority = "NORMAL"
		}
		attachments := "[]"
		if len(dto.Attachments) > 0 {
			raw, _ := json.Marshal(dto.Attachments)
			attachments = string(raw)
		}

		tasks = append(tasks, model.Task{
			Type:        dto.Type,
			Title:       dto.Title,
			Description: dto.Description,
			TaskDate:    taskDate,
			ActiveFrom:  activeFrom,
			ActiveTo:    activeTo,
			DueDate:     dueDate,
			Priority:    priority,
			Status:      model.TaskPending,
			AssignedBy:  assigner,
			AssignedTo:  assignee,
			StoreID:     storeID,
			Attachments: attachments,
		})
	}

	batch := &model.TaskBatch{
		AssignedBy: assigner,
		AssignedTo: assignee,
		StoreID:    storeID,
		Note:       req.Note,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.tasks.CreateBatch(txCtx, batch); err != nil {
			return err
		}
		for i := range tasks {
			tasks[i].BatchID = batch.ID
		}
		if err := s.tasks.CreateTasks(txCtx, tasks); err != nil {
			return err
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:   &assigner,
			Action:   model.ActionCreateTaskBatch,
			EntityID: batch.ID.String(),
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to create task batch", err)
	}

	if s.notifier != nil {
		s.notifier.Broadcast("task_batch_created", map[string]interface{}{
			"batch_id":    batch.ID.String(),
			"assigned_to": assignee.String(),
			"store_id":    storeID.String(),
			"task_count":  len(tasks),
		})
	}

	loaded, err := s.tasks.GetBatchByID(ctx, batch.ID)
	if err != nil {
		return nil, apperror.Internal("failed to reload task batch", err)
	}
	return loaded, nil
}

func (s *taskService) UpdateTaskStatus(ctx context.Context, taskID, actorID, actorRole string, req UpdateTaskStatusDTO) (*model.Task, error) {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return nil, apperror.Validation("invalid task id")
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}

	task, err := s.tasks.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("task not found")
		}
		return nil, apperror.Internal("failed to load task", err)
	}

	if model.TerminalTaskStatus(task.Status) {
		return nil, apperror.Validation("task is already " + task.Status)
	}

	switch actorRole {
	case model.RolePC:
		if task.AssignedTo != actor {
			return nil, apperror.Forbidden("task is not assigned to you")
		}
		if !pcAllowedStatuses[req.Status] {
			return nil, apperror.Forbidden("status not allowed for PC")
		}
	case model.RoleSupervisor, model.RoleAdmin:
		if !supervisorAllowedStatuses[req.Status] {
			return nil, apperror.Forbidden("status not allowed for supervisor")
		}
	default:
		return nil, apperror.Forbidden("role cannot update task status")
	}

	task.Status = req.Status
	if supervisorAllowedStatuses[req.Status] {
		now := s.now()
		task.ReviewedBy = &actor
		task.ReviewedAt = &now
		if req.Status == model.TaskRejected {
			if strings.TrimSpace(req.Reason) == "" {
				return nil, apperror.Validation("rejection reason is required")
			}
			task.RejectionReason = req.Reason
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.tasks.UpdateTask(txCtx, task); err != nil {
			return err
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actor,
			Action:     model.ActionUpdateTask,
			EntityID:   task.ID.String(),
			EntityName: task.Title,
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to update task", err)
	}

	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, actorID, actorRole string, filter TaskListFilter) ([]model.Task, int64, error) {
	repoFilter := repository.TaskFilter{Status: filter.Status, Page: filter.Page, Limit: filter.Limit}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}

	// PCs only list their own tasks
	if actorRole == model.RolePC {
		filter.AssignedTo = actorID
	}
	if filter.AssignedTo != "" {
		id, err := uuid.Parse(filter.AssignedTo)
		if err != nil {
			return nil, 0, apperror.Validation("invalid assigned_to filter")
		}
		repoFilter.AssignedTo = &id
	}
	if filter.StoreID != "" {
		id, err := uuid.Parse(filter.StoreID)
		if err != nil {
			return nil, 0, apperror.Validation("invalid store_id filter")
		}
		repoFilter.StoreID = &id
	}

	tasks, total, err := s.tasks.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list tasks", err)
	}
	return tasks, total, nil
}

func (s *taskService) GetCheckinEligibility(ctx context.Context, pcID string) ([]StoreEligibility, error) {
	pc, err := uuid.Parse(pcID)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}

	tasks, err := s.tasks.ListActiveForPC(ctx, pc, s.now())
	if err != nil {
		return nil, apperror.Internal("failed to list active tasks", err)
	}

	grouped := make(map[uuid.UUID]*StoreEligibility)
	var order []uuid.UUID
	for _, task := range tasks {
		entry, ok := grouped[task.StoreID]
		if !ok {
			entry = &StoreEligibility{StoreID: task.StoreID}
			if task.Store != nil {
				entry.StoreName = task.Store.Name
				entry.StoreCode = task.Store.Code
			}
			grouped[task.StoreID] = entry
			order = append(order, task.StoreID)
		}
		entry.Tasks = append(entry.Tasks, task)
	}

	result := make([]StoreEligibility, 0, len(order))
	for _, storeID := range order {
		result = append(result, *grouped[storeID])
	}
	return result, nil
}
