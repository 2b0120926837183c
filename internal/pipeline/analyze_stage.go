package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/entity"
)

// DegradedSummary replaces the analysis output when the intelligence layer
// is fully unavailable; the pipeline still completes.
const DegradedSummary = "Your document was processed successfully. A review of the original with a healthcare professional is recommended."

// degradedPlaceholder is persisted as extracted_data in that case, so the
// field is never a raw error.
var degradedPlaceholder = json.RawMessage(`{"status":"analysis_unavailable"}`)

// analysisOutcome is the Stage-2 result: what finalization persists.
type analysisOutcome struct {
	Summary       string
	Analysis      json.RawMessage
	ExtractedData json.RawMessage
}

// analyzeStage dispatches on the classified report type. It is an isolated
// failure domain: an analyzer fault degrades the outcome, never aborts.
func (o *Orchestrator) analyzeStage(ctx context.Context, rep *entity.Report, ext extraction) analysisOutcome {
	switch ext.Type {
	case constants.TypePrescription:
		return o.analyzePrescription(ctx, rep, ext.Text)
	case constants.TypeBloodTest, constants.TypeGeneral:
		return o.analyzeFullReport(ctx, rep, ext.Text)
	default:
		// Imaging and any future types get no analysis; summary stays empty.
		o.Logger.Info("pipeline.analyze.skipped", "report_id", rep.ID, "report_type", ext.Type)
		return analysisOutcome{}
	}
}

func (o *Orchestrator) analyzeFullReport(ctx context.Context, rep *entity.Report, text string) analysisOutcome {
	analysis, raw, err := o.Analyzer.Analyze(ctx, text)
	if err != nil {
		return o.degraded(rep, err)
	}
	o.Logger.Info("pipeline.analyze.ok", "report_id", rep.ID, "findings", len(analysis.Findings), "risk_level", analysis.RiskLevel)
	return analysisOutcome{
		Summary:       analysis.Summary,
		Analysis:      raw,
		ExtractedData: raw,
	}
}

// analyzePrescription extracts medication entries and fans out one
// medication record per entry. A failure to create one specific record is
// logged and skipped; every remaining entry is still attempted.
func (o *Orchestrator) analyzePrescription(ctx context.Context, rep *entity.Report, text string) analysisOutcome {
	entries, raw, err := o.Analyzer.ExtractMedications(ctx, text)
	if err != nil {
		return o.degraded(rep, err)
	}

	created := 0
	for i, e := range entries {
		med := &entity.Medication{
			UserID:       rep.UserID,
			ReportID:     rep.ID,
			Name:         e.Name,
			Dosage:       e.Dosage,
			Frequency:    e.Frequency,
			Instructions: e.Instructions,
			SideEffects:  strings.Join(e.SideEffects, ", "),
			IsActive:     true,
		}
		if _, err := o.Medications.Create(ctx, med); err != nil {
			o.Logger.Warn("pipeline.medication.create_failed",
				"report_id", rep.ID, "index", i, "name", e.Name, "error", err)
			continue
		}
		created++
	}
	o.Logger.Info("pipeline.medications.ok", "report_id", rep.ID, "extracted", len(entries), "created", created)

	return analysisOutcome{
		Summary:       fmt.Sprintf("Prescription contains %d medication(s)", len(entries)),
		ExtractedData: raw,
	}
}

func (o *Orchestrator) degraded(rep *entity.Report, err error) analysisOutcome {
	analysisFallbacks.Inc()
	o.Logger.Warn("pipeline.analyze.degraded", "report_id", rep.ID, "error", err)
	return analysisOutcome{
		Summary:       DegradedSummary,
		ExtractedData: degradedPlaceholder,
	}
}
