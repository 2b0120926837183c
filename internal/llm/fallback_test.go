package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleBasedAnalyzeFindsMeasurements(t *testing.T) {
	text := "Hemoglobin: 13.2 g/dL\nGlucose: 105 mg/dL\nNotes follow without values."

	analysis, raw, err := NewRuleBased(nil).Analyze(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, analysis.Findings, 2)
	assert.Equal(t, "Hemoglobin", analysis.Findings[0].Name)
	assert.Equal(t, "13.2 g/dL", analysis.Findings[0].Value)
	assert.Equal(t, "unknown", analysis.Findings[0].Status)
	assert.Equal(t, "low", analysis.RiskLevel)
	assert.Contains(t, analysis.Summary, "2 measurable value(s)")

	// The fallback's own output satisfies the analysis schema.
	require.NoError(t, ValidateJSONAgainstSchema(BuildAnalysisJSONSchema(), raw))
}

func TestRuleBasedAnalyzeEmptyText(t *testing.T) {
	analysis, _, err := NewRuleBased(nil).Analyze(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, analysis.Findings)
	assert.Contains(t, analysis.Summary, "No structured values")
	assert.Equal(t, "low", analysis.RiskLevel)
}

func TestRuleBasedExtractMedications(t *testing.T) {
	text := "1. Metformin 500mg twice daily\n2. Lisinopril 10 mg at bedtime\nMetformin 500mg duplicate line\nFollow up in 3 months"

	meds, raw, err := NewRuleBased(nil).ExtractMedications(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, meds, 2, "duplicates collapse, non-dosage lines are ignored")

	assert.Equal(t, "Metformin", meds[0].Name)
	assert.Equal(t, "500mg", meds[0].Dosage)
	assert.Equal(t, "twice", meds[0].Frequency)

	assert.Equal(t, "Lisinopril", meds[1].Name)
	assert.Equal(t, "10 mg", meds[1].Dosage)
	assert.Equal(t, "at bedtime", meds[1].Frequency)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Len(t, m["medications"], 2)
}
