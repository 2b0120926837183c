package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeAnalysisJSON(t *testing.T) {
	raw := []byte(`{
		"findings": [
			{"name": "Glucose", "value": 105.50, "status": "HIGH"},
			{"name": "HDL", "value": null}
		],
		"summary": "Mildly elevated glucose.",
		"risk_level": "Elevated",
		"confidence": 0.93,
		"recommendations": null
	}`)

	out, changed, err := SanitizeAnalysisJSON(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, changed)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "moderate", m["risk_level"])
	assert.NotContains(t, m, "confidence")
	assert.NotContains(t, m, "recommendations")

	findings := m["findings"].([]any)
	first := findings[0].(map[string]any)
	assert.Equal(t, "105.5", first["value"])
	assert.Equal(t, "high", first["status"])
	second := findings[1].(map[string]any)
	assert.Equal(t, "", second["value"])

	// Sanitized output must pass the schema it is sanitized for.
	require.NoError(t, ValidateJSONAgainstSchema(BuildAnalysisJSONSchema(), out))
}

func TestSanitizeAnalysisJSONRejectsNonJSON(t *testing.T) {
	_, _, err := SanitizeAnalysisJSON([]byte("Sure! Here is the analysis:"))
	require.Error(t, err)
}

func TestSanitizeMedicationsJSONWrapsBareArray(t *testing.T) {
	raw := []byte(`[{"name": "Metformin", "dosage": "500mg", "instructions": "", "frequency": null}]`)

	out, changed, err := SanitizeMedicationsJSON(raw)
	require.NoError(t, err)
	assert.Contains(t, changed, "wrapped-bare-array")

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	meds := m["medications"].([]any)
	require.Len(t, meds, 1)
	entry := meds[0].(map[string]any)
	assert.Equal(t, "Metformin", entry["name"])
	assert.NotContains(t, entry, "instructions")
	assert.NotContains(t, entry, "frequency")

	require.NoError(t, ValidateJSONAgainstSchema(BuildMedicationsJSONSchema(), out))
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildAnalysisJSONSchema()

	valid := []byte(`{"findings":[{"name":"Glucose","value":"105"}],"summary":"ok","risk_level":"low"}`)
	assert.NoError(t, ValidateJSONAgainstSchema(schema, valid))

	badEnum := []byte(`{"findings":[],"summary":"ok","risk_level":"catastrophic"}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, badEnum))

	missing := []byte(`{"findings":[]}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, missing))
}
