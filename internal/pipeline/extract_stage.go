package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/classify"
)

// extraction is the Stage-1 result. On failure, Text carries the failure
// message (it becomes the provisional original_text and, later, the failed
// report's summary) and Type stays at the general placeholder.
type extraction struct {
	Text   string
	Type   constants.ReportType
	Failed bool
}

// extractStage is an isolated failure domain: extraction errors never
// propagate, they are folded into the returned value.
func (o *Orchestrator) extractStage(ctx context.Context, reportID uuid.UUID, data []byte, contentType string) extraction {
	res, err := o.Extractor.Extract(ctx, data, contentType)
	if err != nil {
		extractionFailures.Inc()
		o.Logger.Warn("pipeline.extract.failed", "report_id", reportID, "content_type", contentType, "error", err)
		return extraction{
			Text:   "Text extraction failed: " + err.Error(),
			Type:   constants.TypeGeneral,
			Failed: true,
		}
	}

	ext := extraction{Text: res.Text, Type: constants.TypeGeneral}
	// Empty text is valid (e.g. a scanned PDF): keep the general placeholder
	// and let the analysis stage run on what little there is.
	if strings.TrimSpace(res.Text) != "" {
		ext.Type = classify.Classify(res.Text)
	}
	o.Logger.Info("pipeline.extract.ok",
		"report_id", reportID,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"report_type", ext.Type,
	)
	return ext
}
