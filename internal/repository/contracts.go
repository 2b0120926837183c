package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/entity"
)

// ReportPatch holds the fields a report update may touch. Nil fields are
// left untouched: updates are a shallow merge, never a full overwrite.
type ReportPatch struct {
	ReportType    *constants.ReportType
	OriginalText  *string
	Analysis      json.RawMessage
	ExtractedData json.RawMessage
	Summary       *string
	Status        *constants.ReportStatus
}

// ReportRepository is the report record store. Get and Update return
// (nil, nil) for an absent id: absence is a fact, not an error.
type ReportRepository interface {
	Create(ctx context.Context, r *entity.Report) (*entity.Report, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Report, error)
	Update(ctx context.Context, id uuid.UUID, patch ReportPatch) (*entity.Report, error)
}

// MedicationRepository stores the per-user medication records. SetActive is
// scoped to the owner: a mismatched user id is treated as absence, so a
// caller can never mutate someone else's record.
type MedicationRepository interface {
	Create(ctx context.Context, m *entity.Medication) (*entity.Medication, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Medication, error)
	SetActive(ctx context.Context, id, userID uuid.UUID, active bool) (*entity.Medication, error)
}

type TimelineRepository interface {
	Create(ctx context.Context, e *entity.TimelineEntry) (*entity.TimelineEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.TimelineEntry, error)
}

type ShareLinkRepository interface {
	Create(ctx context.Context, s *entity.ShareLink) (*entity.ShareLink, error)
	GetByToken(ctx context.Context, token string) (*entity.ShareLink, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Stores bundles the four repositories the service wires together.
type Stores struct {
	Reports     ReportRepository
	Medications MedicationRepository
	Timeline    TimelineRepository
	ShareLinks  ShareLinkRepository
}
