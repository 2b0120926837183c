package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/carelens/carelens/constants"
)

// TimelineEntry is the denormalized health timeline row written once per
// successfully completed report.
type TimelineEntry struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                   `gorm:"type:uuid;index;not null" json:"user_id"`
	ReportID    uuid.UUID                   `gorm:"type:uuid;index" json:"report_id"`
	EventType   constants.TimelineEventType `gorm:"size:32" json:"event_type"`
	Title       string                      `gorm:"size:512" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Metrics     json.RawMessage             `gorm:"type:jsonb" json:"metrics,omitempty"`
	OccurredAt  time.Time                   `gorm:"index" json:"occurred_at"`
	CreatedAt   time.Time                   `json:"created_at"`
}
