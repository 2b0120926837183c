package repository

import (
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/carelens/carelens/internal/common"
	"github.com/carelens/carelens/internal/entity"
)

// Open connects to Postgres, runs auto-migration, and returns the gorm-backed
// store set.
func Open(dsn string, log *slog.Logger) (Stores, *gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("connecting to database")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return Stores{}, nil, common.NewAppError("db_open", "open database", err)
	}

	if err := db.AutoMigrate(
		&entity.Report{},
		&entity.Medication{},
		&entity.TimelineEntry{},
		&entity.ShareLink{},
	); err != nil {
		return Stores{}, nil, common.NewAppError("db_migrate", "auto-migrate", err)
	}

	return Stores{
		Reports:     NewReportRepository(db, log),
		Medications: NewMedicationRepository(db, log),
		Timeline:    NewTimelineRepository(db, log),
		ShareLinks:  NewShareLinkRepository(db, log),
	}, db, nil
}
