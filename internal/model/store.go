package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store type constants
const (
	StoreTypeSupermarket = "SUPERMARKET"
	StoreTypeHypermarket = "HYPERMARKET"
	StoreTypeConvenience = "CONVENIENCE"
	StoreTypeTraditional = "TRADITIONAL"
)

// Store is static reference data: a retail outlet a PC can visit.
// Latitude/Longitude are nullable as a pair; check-in distance gating is skipped
// for stores without a recorded geolocation.
type Store struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Code         string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
	Type         string         `gorm:"type:varchar(30)" json:"type"`
	Address      string         `gorm:"type:text" json:"address"`
	AssignedPCID *uuid.UUID     `gorm:"type:uuid;index" json:"assigned_pc_id"`
	AssignedPC   *User          `gorm:"foreignKey:AssignedPCID" json:"assigned_pc,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasGeolocation reports whether both coordinates are recorded
func (s *Store) HasGeolocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}
