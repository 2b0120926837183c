package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/carelens/carelens/constants"
)

// Report represents one uploaded medical document and its processing state.
// FileName and FileURL are provenance, set at creation and never mutated.
// The pipeline owns all other mutable fields until Status is terminal.
type Report struct {
	ID            uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID              `gorm:"type:uuid;index;not null" json:"user_id"`
	FileName      string                 `gorm:"size:512" json:"file_name"`
	FileURL       string                 `gorm:"size:1024" json:"file_url"`
	ReportType    constants.ReportType   `gorm:"size:32" json:"report_type"`
	OriginalText  string                 `gorm:"type:text" json:"original_text"`
	Analysis      json.RawMessage        `gorm:"type:jsonb" json:"analysis,omitempty"`
	ExtractedData json.RawMessage        `gorm:"type:jsonb" json:"extracted_data,omitempty"`
	Summary       string                 `gorm:"type:text" json:"summary"`
	Status        constants.ReportStatus `gorm:"size:16;index" json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}
