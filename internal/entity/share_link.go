package entity

import (
	"time"

	"github.com/google/uuid"
)

// ShareLink grants read access to a user's health timeline until ExpiresAt.
type ShareLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the link is past its TTL at the given instant.
func (s ShareLink) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
