package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carelens/carelens/internal/entity"
)

type shareLinkRepository struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewShareLinkRepository(db *gorm.DB, log *slog.Logger) ShareLinkRepository {
	if log == nil {
		log = slog.Default()
	}
	return &shareLinkRepository{db: db, log: log}
}

func (r *shareLinkRepository) Create(ctx context.Context, s *entity.ShareLink) (*entity.ShareLink, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		r.log.Error("share link create failed", "user_id", s.UserID, "error", err)
		return nil, err
	}
	return s, nil
}

func (r *shareLinkRepository) GetByToken(ctx context.Context, token string) (*entity.ShareLink, error) {
	var s entity.ShareLink
	err := r.db.WithContext(ctx).First(&s, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("share link get failed", "error", err)
		return nil, err
	}
	return &s, nil
}

func (r *shareLinkRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&entity.ShareLink{})
	if res.Error != nil {
		r.log.Error("share link sweep failed", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
