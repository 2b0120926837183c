package constants

// ReportStatus is the canonical processing state for rows in reports.
type ReportStatus string

// Stable values (store these exact strings in DB).
const (
	StatusProcessing ReportStatus = "processing" // pipeline in flight
	StatusCompleted  ReportStatus = "completed"  // terminal success (possibly with degraded analysis)
	StatusFailed     ReportStatus = "failed"     // terminal failure (text extraction did not succeed)
)

// Terminal reports whether a status is one of the two end states.
// The pipeline writes a terminal status exactly once per report.
func (s ReportStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
