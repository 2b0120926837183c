package constants

import "strings"

// ReportType is the document classification tag set by the pipeline.
type ReportType string

const (
	TypePrescription ReportType = "prescription"
	TypeBloodTest    ReportType = "blood_test"
	TypeImaging      ReportType = "imaging"
	TypeGeneral      ReportType = "general"
)

// TimelineEventType categorizes health timeline entries.
type TimelineEventType string

const (
	EventMedicationChange TimelineEventType = "medication_change"
	EventLabResult        TimelineEventType = "lab_result"
)

// Humanize turns a report type tag into a display label, e.g.
// "blood_test" -> "Blood Test".
func (t ReportType) Humanize() string {
	parts := strings.Split(string(t), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
