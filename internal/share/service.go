// Package share issues time-limited read-only links to a user's health
// timeline, for handing to a doctor without creating an account.
package share

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelens/carelens/internal/common"
	"github.com/carelens/carelens/internal/entity"
	"github.com/carelens/carelens/internal/repository"
)

// View is what a share link resolves to: the owner's timeline and active
// medications, nothing else.
type View struct {
	UserID      uuid.UUID               `json:"user_id"`
	ExpiresAt   time.Time               `json:"expires_at"`
	Timeline    []*entity.TimelineEntry `json:"timeline"`
	Medications []*entity.Medication    `json:"medications"`
}

type Service struct {
	links       repository.ShareLinkRepository
	timeline    repository.TimelineRepository
	medications repository.MedicationRepository
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(stores repository.Stores, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		links:       stores.ShareLinks,
		timeline:    stores.Timeline,
		medications: stores.Medications,
		ttl:         ttl,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a fresh link for the user. Tokens are 32 random bytes,
// hex-encoded; collisions are left to the unique index to reject.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID) (*entity.ShareLink, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate share token: %w", err)
	}
	link := &entity.ShareLink{
		Token:     hex.EncodeToString(buf),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	created, err := s.links.Create(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}
	s.logger.Info("share.issued", "user_id", userID, "expires_at", created.ExpiresAt)
	return created, nil
}

// Resolve returns the shared view behind a token. An expired link that the
// sweep has not deleted yet still resolves to ErrExpired.
func (s *Service) Resolve(ctx context.Context, token string) (*View, error) {
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup share link: %w", err)
	}
	if link == nil {
		return nil, common.ErrNotFound
	}
	if link.Expired(s.now()) {
		return nil, common.ErrExpired
	}

	timeline, err := s.timeline.ListByUser(ctx, link.UserID)
	if err != nil {
		return nil, fmt.Errorf("load shared timeline: %w", err)
	}
	meds, err := s.medications.ListByUser(ctx, link.UserID)
	if err != nil {
		return nil, fmt.Errorf("load shared medications: %w", err)
	}

	active := meds[:0:0]
	for _, m := range meds {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return &View{
		UserID:      link.UserID,
		ExpiresAt:   link.ExpiresAt,
		Timeline:    timeline,
		Medications: active,
	}, nil
}

// SweepExpired deletes links past their TTL. Run from the cron schedule.
func (s *Service) SweepExpired(ctx context.Context) {
	n, err := s.links.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn("share.sweep_failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("share.swept", "deleted", n)
	}
}
