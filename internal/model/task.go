package model

import (
	"time"

	"github.com/google/uuid"
)

// Scheduled task type constants. This vocabulary belongs to supervisor-authored
// work and is distinct from the per-visit checklist types in visit.go.
const (
	ScheduledTaskOSA            = "OSA"
	ScheduledTaskSpecialDisplay = "SPECIAL_DISPLAY"
	ScheduledTaskMarketInfo     = "MARKET_INFORMATION"
	ScheduledTaskSurvey         = "SURVEY"
)

// Scheduled task status constants
const (
	TaskPending    = "PENDING"
	TaskInProgress = "IN_PROGRESS"
	TaskSubmitted  = "SUBMITTED"
	TaskCompleted  = "COMPLETED"
	TaskApproved   = "APPROVED"
	TaskRejected   = "REJECTED"
	TaskCancelled  = "CANCELLED"
)

// ValidScheduledTaskType reports whether t is a known scheduled task type
func ValidScheduledTaskType(t string) bool {
	switch t {
	case ScheduledTaskOSA, ScheduledTaskSpecialDisplay, ScheduledTaskMarketInfo, ScheduledTaskSurvey:
		return true
	}
	return false
}

// TerminalTaskStatus reports whether a scheduled task can no longer change
func TerminalTaskStatus(status string) bool {
	switch status {
	case TaskApproved, TaskRejected, TaskCancelled:
		return true
	}
	return false
}

// TaskBatch groups scheduled tasks assigned by a supervisor to one PC at one
// store. The batch and its tasks are created in a single transaction.
type TaskBatch struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AssignedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"assigned_by"`
	Assigner   *User     `gorm:"foreignKey:AssignedBy" json:"assigner,omitempty"`
	AssignedTo uuid.UUID `gorm:"type:uuid;not null;index" json:"assigned_to"`
	Assignee   *User     `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	StoreID    uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	Store      *Store    `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Note       string    `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Tasks []Task `gorm:"foreignKey:BatchID" json:"tasks,omitempty"`
}

// Task is one supervisor-scheduled work item. Either TaskDate pins it to a
// single day or [ActiveFrom, ActiveTo] gives it a validity window.
type Task struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"batch_id"`
	Batch           *TaskBatch `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"-"`
	Type            string     `gorm:"type:varchar(30);not null" json:"type"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	TaskDate        *time.Time `gorm:"type:date;index" json:"task_date"`
	ActiveFrom      *time.Time `gorm:"type:date" json:"active_from"`
	ActiveTo        *time.Time `gorm:"type:date" json:"active_to"`
	DueDate         *time.Time `json:"due_date"`
	Priority        string     `gorm:"type:varchar(10);default:'NORMAL'" json:"priority"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AssignedBy      uuid.UUID  `gorm:"type:uuid;not null" json:"assigned_by"`
	AssignedTo      uuid.UUID  `gorm:"type:uuid;not null;index" json:"assigned_to"`
	StoreID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"store_id"`
	Store           *Store     `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer        *User      `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	Attachments     string     `gorm:"type:jsonb" json:"attachments,omitempty"` // JSON array of URLs
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ActiveOn reports whether the task is live on the given day: either dated for
// that day or inside its [ActiveFrom, ActiveTo] window.
func (t *Task) ActiveOn(day time.Time) bool {
	d := day.Truncate(24 * time.Hour)
	if t.TaskDate != nil {
		return t.TaskDate.Truncate(24 * time.Hour).Equal(d)
	}
	if t.ActiveFrom != nil && t.ActiveTo != nil {
		return !d.Before(t.ActiveFrom.Truncate(24*time.Hour)) && !d.After(t.ActiveTo.Truncate(24*time.Hour))
	}
	return false
}
