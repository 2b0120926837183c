package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carelens/carelens/internal/entity"
)

type timelineRepository struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewTimelineRepository(db *gorm.DB, log *slog.Logger) TimelineRepository {
	if log == nil {
		log = slog.Default()
	}
	return &timelineRepository{db: db, log: log}
}

func (r *timelineRepository) Create(ctx context.Context, e *entity.TimelineEntry) (*entity.TimelineEntry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		r.log.Error("timeline create failed", "user_id", e.UserID, "report_id", e.ReportID, "error", err)
		return nil, err
	}
	return e, nil
}

func (r *timelineRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.TimelineEntry, error) {
	var entries []*entity.TimelineEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Find(&entries).Error
	if err != nil {
		r.log.Error("timeline list failed", "user_id", userID, "error", err)
		return nil, err
	}
	return entries, nil
}
