package entity

import (
	"time"

	"github.com/google/uuid"
)

// Medication is created by the pipeline from prescription reports and is
// independently editable by the user afterwards.
type Medication struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ReportID     uuid.UUID `gorm:"type:uuid;index" json:"report_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Dosage       string    `gorm:"size:255" json:"dosage"`
	Frequency    string    `gorm:"size:255" json:"frequency"`
	Instructions string    `gorm:"type:text" json:"instructions"`
	SideEffects  string    `gorm:"type:text" json:"side_effects"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
