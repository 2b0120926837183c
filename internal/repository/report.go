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

type reportRepository struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewReportRepository(db *gorm.DB, log *slog.Logger) ReportRepository {
	if log == nil {
		log = slog.Default()
	}
	return &reportRepository{db: db, log: log}
}

func (r *reportRepository) Create(ctx context.Context, rep *entity.Report) (*entity.Report, error) {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(rep).Error; err != nil {
		r.log.Error("report create failed", "report_id", rep.ID, "error", err)
		return nil, err
	}
	return rep, nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	var rep entity.Report
	err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("report get failed", "report_id", id, "error", err)
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Report, error) {
	var reps []*entity.Report
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reps).Error
	if err != nil {
		r.log.Error("report list failed", "user_id", userID, "error", err)
		return nil, err
	}
	return reps, nil
}

// Update applies a shallow merge of the patch and refreshes updated_at.
// An absent id is a no-op returning (nil, nil).
func (r *reportRepository) Update(ctx context.Context, id uuid.UUID, patch ReportPatch) (*entity.Report, error) {
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if patch.ReportType != nil {
		fields["report_type"] = *patch.ReportType
	}
	if patch.OriginalText != nil {
		fields["original_text"] = *patch.OriginalText
	}
	if patch.Analysis != nil {
		fields["analysis"] = patch.Analysis
	}
	if patch.ExtractedData != nil {
		fields["extracted_data"] = patch.ExtractedData
	}
	if patch.Summary != nil {
		fields["summary"] = *patch.Summary
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}

	res := r.db.WithContext(ctx).
		Model(&entity.Report{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		r.log.Error("report update failed", "report_id", id, "error", res.Error)
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}
