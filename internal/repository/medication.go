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

type medicationRepository struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewMedicationRepository(db *gorm.DB, log *slog.Logger) MedicationRepository {
	if log == nil {
		log = slog.Default()
	}
	return &medicationRepository{db: db, log: log}
}

func (r *medicationRepository) Create(ctx context.Context, m *entity.Medication) (*entity.Medication, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		r.log.Error("medication create failed", "user_id", m.UserID, "name", m.Name, "error", err)
		return nil, err
	}
	return m, nil
}

func (r *medicationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Medication, error) {
	var meds []*entity.Medication
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&meds).Error
	if err != nil {
		r.log.Error("medication list failed", "user_id", userID, "error", err)
		return nil, err
	}
	return meds, nil
}

func (r *medicationRepository) SetActive(ctx context.Context, id, userID uuid.UUID, active bool) (*entity.Medication, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Medication{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		r.log.Error("medication update failed", "medication_id", id, "error", res.Error)
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	var m entity.Medication
	if err := r.db.WithContext(ctx).First(&m, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
