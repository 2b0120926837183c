package llm

import (
	"context"
	"encoding/json"
)

// Finding is one structured observation pulled out of a report.
type Finding struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Status         string `json:"status,omitempty"` // normal | high | low | unknown
	ReferenceRange string `json:"reference_range,omitempty"`
}

// MedicalAnalysis is the normalized shape we want from the analysis engine.
type MedicalAnalysis struct {
	Findings        []Finding `json:"findings"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations,omitempty"`
	RiskLevel       string    `json:"risk_level"` // low | moderate | high
	NextSteps       []string  `json:"next_steps,omitempty"`
}

// MedicationEntry is one medication parsed from a prescription.
type MedicationEntry struct {
	Name         string   `json:"name"`
	Dosage       string   `json:"dosage,omitempty"`
	Frequency    string   `json:"frequency,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	SideEffects  []string `json:"side_effects,omitempty"`
}

// Analyzer is the analysis-engine contract the pipeline depends on.
// Implementations are expected to carry their own internal fallback so that
// in practice they return a degraded-but-valid result rather than fail; an
// error means both the primary engine and its fallback were exhausted.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (MedicalAnalysis, json.RawMessage, error)
	ExtractMedications(ctx context.Context, text string) ([]MedicationEntry, json.RawMessage, error)
}
