package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Evidence review status constants (the approval workflow vocabulary)
const (
	ReviewPending  = "PENDING"
	ReviewApproved = "APPROVED"
	ReviewRejected = "REJECTED"
)

// ReviewFields is embedded by every evidence record: reviewer identity,
// decision timestamp and the verbatim rejection reason.
type ReviewFields struct {
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer        *User      `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
}

// OSARecord is an on-shelf-availability check: a photo plus a product → in-stock map.
type OSARecord struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"store_id"`
	Store        *Store      `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	PCID         uuid.UUID   `gorm:"type:uuid;not null;index" json:"pc_id"`
	PC           *User       `gorm:"foreignKey:PCID" json:"pc,omitempty"`
	VisitID      *uuid.UUID  `gorm:"type:uuid;index" json:"visit_id"` // null when submitted outside an active visit
	Visit        *StoreVisit `gorm:"foreignKey:VisitID" json:"visit,omitempty"`
	PhotoURL     string      `gorm:"type:text;not null" json:"photo_url"`
	Availability string      `gorm:"type:jsonb;not null" json:"availability"` // JSON object keyed by product code
	ReviewFields
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Display is a special-display submission with its negotiated cost.
type Display struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	Store       *Store          `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	PCID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"pc_id"`
	PC          *User           `gorm:"foreignKey:PCID" json:"pc,omitempty"`
	VisitID     *uuid.UUID      `gorm:"type:uuid;index" json:"visit_id"`
	Visit       *StoreVisit     `gorm:"foreignKey:VisitID" json:"visit,omitempty"`
	PhotoURL    string          `gorm:"type:text;not null" json:"photo_url"`
	DisplayType string          `gorm:"type:varchar(50);not null" json:"display_type"`
	Cost        decimal.Decimal `gorm:"type:numeric(14,2)" json:"cost"`
	ReviewFields
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Survey is a market-survey submission; the payload shape is client-defined.
type Survey struct {
	ID       uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"store_id"`
	Store    *Store      `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	PCID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"pc_id"`
	PC       *User       `gorm:"foreignKey:PCID" json:"pc,omitempty"`
	VisitID  *uuid.UUID  `gorm:"type:uuid;index" json:"visit_id"`
	Visit    *StoreVisit `gorm:"foreignKey:VisitID" json:"visit,omitempty"`
	PhotoURL string      `gorm:"type:text" json:"photo_url,omitempty"` // optional; surveys may carry a PDF instead
	Data     string      `gorm:"type:jsonb;not null" json:"data"`
	ReviewFields
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Promotion is the simplest evidence type: no visit coupling, no checklist effect.
type Promotion struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID     uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	Store       *Store    `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	PCID        uuid.UUID `gorm:"type:uuid;not null;index" json:"pc_id"`
	PC          *User     `gorm:"foreignKey:PCID" json:"pc,omitempty"`
	PhotoURL    string    `gorm:"type:text;not null" json:"photo_url"`
	Description string    `gorm:"type:text" json:"description"`
	ReviewFields
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
