package model

import (
	"time"

	"github.com/google/uuid"
)

// StoreVisit status constants
const (
	VisitCheckedIn  = "CHECKED_IN"
	VisitCheckedOut = "CHECKED_OUT"
)

// TaskAssignment task type constants (the per-visit checklist vocabulary)
const (
	TaskTypeOSA       = "OSA"
	TaskTypeDisplay   = "DISPLAY"
	TaskTypeSurvey    = "SURVEY"
	TaskTypePromotion = "PROMOTION"
)

// TaskAssignment status constants
const (
	AssignmentPending    = "PENDING"
	AssignmentInProgress = "IN_PROGRESS"
	AssignmentCompleted  = "COMPLETED"
)

// DefaultAssignmentTypes is the checklist created on every check-in.
// PROMOTION is deliberately not part of the default set.
var DefaultAssignmentTypes = []string{TaskTypeOSA, TaskTypeDisplay, TaskTypeSurvey}

// StoreVisit is one check-in-to-check-out session for a PC at a store.
// A row is created on check-in and either mutated once on check-out or deleted
// wholesale when the PC cancels; it is never resurrected.
type StoreVisit struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"store_id"`
	Store        *Store     `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	PCID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"pc_id"`
	PC           *User      `gorm:"foreignKey:PCID" json:"pc,omitempty"`
	CheckInTime  time.Time  `gorm:"not null;index" json:"check_in_time"`
	CheckInLat   float64    `json:"check_in_lat"`
	CheckInLng   float64    `json:"check_in_lng"`
	CheckOutTime *time.Time `json:"check_out_time"`
	CheckOutLat  *float64   `json:"check_out_lat"`
	CheckOutLng  *float64   `json:"check_out_lng"`
	Status       string     `gorm:"type:varchar(20);not null;default:'CHECKED_IN';index" json:"status"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Assignments []TaskAssignment `gorm:"foreignKey:VisitID" json:"assignments,omitempty"`
}

// TaskAssignment is an auto-generated checklist item gating check-out.
// Exactly one row exists per (visit, task_type); rows are created with the visit
// and only ever leave via the visit's cascade delete.
//
// TaskRecordID is a weak back-reference into whichever evidence table matches
// TaskType; it is not a typed foreign key and ids must never be assumed unique
// across the evidence tables.
type TaskAssignment struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VisitID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_task_assignments_visit_type;constraint:OnDelete:CASCADE" json:"visit_id"`
	Visit        *StoreVisit `gorm:"foreignKey:VisitID;constraint:OnDelete:CASCADE" json:"-"`
	TaskType     string     `gorm:"type:varchar(20);not null;uniqueIndex:ux_task_assignments_visit_type" json:"task_type"`
	IsRequired   bool       `gorm:"not null;default:true" json:"is_required"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CompletedAt  *time.Time `json:"completed_at"`
	TaskRecordID *uuid.UUID `gorm:"type:uuid" json:"task_record_id"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// VisitStats summarises checklist progress for one visit
type VisitStats struct {
	TotalRequired     int  `json:"totalRequired"`
	CompletedRequired int  `json:"completedRequired"`
	CanCheckOut       bool `json:"canCheckOut"`
}

// ComputeStats derives checklist progress from a visit's loaded assignments
func ComputeStats(assignments []TaskAssignment) VisitStats {
	var stats VisitStats
	for _, a := range assignments {
		if !a.IsRequired {
			continue
		}
		stats.TotalRequired++
		if a.Status == AssignmentCompleted {
			stats.CompletedRequired++
		}
	}
	stats.CanCheckOut = stats.CompletedRequired == stats.TotalRequired
	return stats
}

// IncompleteRequiredTypes lists the task types still blocking check-out
func IncompleteRequiredTypes(assignments []TaskAssignment) []string {
	var incomplete []string
	for _, a := range assignments {
		if a.IsRequired && a.Status != AssignmentCompleted {
			incomplete = append(incomplete, a.TaskType)
		}
	}
	return incomplete
}
