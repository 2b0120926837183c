// Package pipeline implements the asynchronous document-ingestion
// orchestrator: extract text, classify, analyze, fan out derived records,
// and reconcile everything against the report row after the upload request
// has already returned.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/entity"
	"github.com/carelens/carelens/internal/extract"
	"github.com/carelens/carelens/internal/llm"
	"github.com/carelens/carelens/internal/repository"
)

// FailureSummary is written when even the pipeline's own bookkeeping broke
// and no stage-specific message is available.
const FailureSummary = "We could not process this document due to a technical problem. Please try uploading it again."

// storeWriteTimeout bounds the detached report writes.
const storeWriteTimeout = 10 * time.Second

// detachedStoreCtx strips the job deadline off report writes. Once a
// pipeline has started, its report must reach a terminal state even when
// the job ran out of time; only a genuinely unreachable store may stop
// that, so the writes get their own short budget instead.
func detachedStoreCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeWriteTimeout)
}

// Orchestrator coordinates the three pipeline stages for one report.
// It never propagates a failure to its caller: every code path ends in a
// report update, and when even that update cannot be made the failure is
// only logged.
type Orchestrator struct {
	Logger      *slog.Logger
	Reports     repository.ReportRepository
	Medications repository.MedicationRepository
	Timeline    repository.TimelineRepository
	Extractor   extract.TextExtractor
	Analyzer    llm.Analyzer
}

func NewOrchestrator(
	logger *slog.Logger,
	stores repository.Stores,
	ex extract.TextExtractor,
	an llm.Analyzer,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Logger:      logger,
		Reports:     stores.Reports,
		Medications: stores.Medications,
		Timeline:    stores.Timeline,
		Extractor:   ex,
		Analyzer:    an,
	}
}

// Process runs the full pipeline for one uploaded document. The report row
// identified by reportID must already exist in processing state. Outcomes
// are observed only through subsequent reads of that row.
func (o *Orchestrator) Process(ctx context.Context, reportID uuid.UUID, data []byte, contentType string) {
	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("pipeline.panic", "report_id", reportID, "panic", r)
			o.markFailed(ctx, reportID)
		}
	}()

	if err := o.run(ctx, reportID, data, contentType); err != nil {
		// run only errors when a report write itself failed; one best-effort
		// attempt to leave a terminal state, then log-only.
		o.Logger.Error("pipeline.store_write_failed", "report_id", reportID, "error", err)
		o.markFailed(ctx, reportID)
	}
}

func (o *Orchestrator) run(ctx context.Context, reportID uuid.UUID, data []byte, contentType string) error {
	rep, err := o.Reports.GetByID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	if rep == nil {
		o.Logger.Error("pipeline.report_missing", "report_id", reportID)
		return nil
	}

	// Stage 1: extraction. Failures are absorbed into the result; the
	// checkpoint write below happens regardless so extracted text survives
	// a later-stage crash.
	ext := o.extractStage(ctx, reportID, data, contentType)
	checkpoint := repository.ReportPatch{
		OriginalText: &ext.Text,
		ReportType:   &ext.Type,
	}
	ckCtx, ckCancel := detachedStoreCtx(ctx)
	_, err = o.Reports.Update(ckCtx, reportID, checkpoint)
	ckCancel()
	if err != nil {
		return fmt.Errorf("checkpoint write: %w", err)
	}

	// Stage 2: analysis. Always attempted on whatever text was salvaged,
	// even after an extraction failure; its own failures degrade to a safe
	// summary instead of aborting.
	outcome := o.analyzeStage(ctx, rep, ext)

	// Stage 3: finalization.
	status := constants.StatusCompleted
	summary := outcome.Summary
	if ext.Failed {
		status = constants.StatusFailed
		summary = ext.Text
	}
	final := repository.ReportPatch{
		Analysis:      outcome.Analysis,
		ExtractedData: outcome.ExtractedData,
		Summary:       &summary,
		Status:        &status,
	}
	finCtx, finCancel := detachedStoreCtx(ctx)
	defer finCancel()
	updated, err := o.Reports.Update(finCtx, reportID, final)
	if err != nil {
		return fmt.Errorf("terminal write: %w", err)
	}
	if updated == nil {
		o.Logger.Warn("pipeline.report_vanished", "report_id", reportID)
		return nil
	}
	reportsProcessed.WithLabelValues(string(status)).Inc()
	o.Logger.Info("pipeline.done", "report_id", reportID, "status", status, "report_type", updated.ReportType)

	if status == constants.StatusCompleted {
		o.writeTimeline(ctx, updated)
	}
	return nil
}

// writeTimeline records the completed report on the health timeline. A
// failure here is logged and does not change the already-persisted status.
func (o *Orchestrator) writeTimeline(ctx context.Context, rep *entity.Report) {
	ctx, cancel := detachedStoreCtx(ctx)
	defer cancel()

	event := constants.EventLabResult
	if rep.ReportType == constants.TypePrescription {
		event = constants.EventMedicationChange
	}
	entry := &entity.TimelineEntry{
		UserID:      rep.UserID,
		ReportID:    rep.ID,
		EventType:   event,
		Title:       fmt.Sprintf("%s: %s", rep.ReportType.Humanize(), rep.FileName),
		Description: rep.Summary,
		Metrics:     rep.ExtractedData,
		OccurredAt:  time.Now().UTC(),
	}
	if _, err := o.Timeline.Create(ctx, entry); err != nil {
		o.Logger.Warn("pipeline.timeline.create_failed", "report_id", rep.ID, "error", err)
		return
	}
	o.Logger.Info("pipeline.timeline.ok", "report_id", rep.ID, "event_type", event)
}

// markFailed is the outer failure envelope's best-effort terminal write.
// It refuses to overwrite a status that is already terminal, so a late
// failure can never produce a second conflicting terminal write.
func (o *Orchestrator) markFailed(ctx context.Context, reportID uuid.UUID) {
	ctx, cancel := detachedStoreCtx(ctx)
	defer cancel()

	rep, err := o.Reports.GetByID(ctx, reportID)
	if err == nil && rep != nil && rep.Status.Terminal() {
		return
	}
	status := constants.StatusFailed
	summary := FailureSummary
	patch := repository.ReportPatch{Status: &status, Summary: &summary}
	if _, err := o.Reports.Update(ctx, reportID, patch); err != nil {
		o.Logger.Error("pipeline.mark_failed.unreachable", "report_id", reportID, "error", err)
		return
	}
	reportsProcessed.WithLabelValues(string(status)).Inc()
}
