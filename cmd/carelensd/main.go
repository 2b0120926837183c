package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carelens/carelens/internal/async"
	"github.com/carelens/carelens/internal/common"
	"github.com/carelens/carelens/internal/export"
	"github.com/carelens/carelens/internal/llm"
	"github.com/carelens/carelens/internal/llm/openai"
	"github.com/carelens/carelens/internal/ocr"
	"github.com/carelens/carelens/internal/pipeline"
	"github.com/carelens/carelens/internal/repository"
	"github.com/carelens/carelens/internal/server"
	"github.com/carelens/carelens/internal/share"
	"github.com/carelens/carelens/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory for local development.
	var stores repository.Stores
	if cfg.DatabaseURL != "" {
		s, _, err := repository.Open(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("database open failed", "error", err)
			os.Exit(1)
		}
		stores = s
		logger.Info("database connected")
	} else {
		stores = repository.NewMemoryStores()
		logger.Warn("DB_URL not set, using in-memory stores")
	}

	// Blob storage: S3 when configured, in-memory otherwise.
	var blobs storage.BlobStore
	if cfg.S3AccessKey != "" || cfg.S3Endpoint != "" {
		s3store, err := storage.NewS3Store(ctx, cfg)
		if err != nil {
			logger.Error("s3 init failed", "error", err)
			os.Exit(1)
		}
		blobs = s3store
		logger.Info("s3 blob store ready", "bucket", cfg.S3Bucket)
	} else {
		blobs = storage.NewMemoryStore()
		logger.Warn("S3 not configured, using in-memory blob store")
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:   cfg.TesseractBin,
		TessdataDir: cfg.TessdataDir,
		Timeout:     cfg.OCRTimeout,
		PSM:         6,
	}, logger)

	// Analysis engine: the OpenAI-backed analyzer when a key is present,
	// the rule-based engine alone otherwise.
	var analyzer llm.Analyzer
	if cfg.OpenAIAPIKey != "" {
		analyzer = openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
		}, nil, logger)
	} else {
		logger.Warn("OPENAI_API_KEY not set, using rule-based analysis only")
		analyzer = llm.NewRuleBased(logger)
	}

	orch := pipeline.NewOrchestrator(logger, stores, extractor, analyzer)
	queue := async.NewReportQueue(orch, logger,
		async.WithWorkers(cfg.Workers),
		async.WithQueueSize(cfg.QueueSize),
		async.WithProcessTimeout(cfg.ProcessTimeout),
	)

	sharing := share.NewService(stores, cfg.ShareTTL, logger)
	exporter := export.NewService(stores, logger)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.ShareSweepSchedule, func() {
		sharing.SweepExpired(context.Background())
	}); err != nil {
		logger.Error("share sweep schedule invalid", "schedule", cfg.ShareSweepSchedule, "error", err)
		os.Exit(1)
	}
	sweeper.Start()

	srv := server.NewServer(logger, cfg, stores, blobs, queue, sharing, exporter)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	sweeper.Stop()
	// Drain the queue last so in-flight pipelines can reach a terminal state.
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
