package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildAnalysisJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate.
func BuildAnalysisJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"findings": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"name":            map[string]any{"type": "string", "minLength": 1},
						"value":           map[string]any{"type": "string"},
						"status":          map[string]any{"type": "string", "enum": []string{"normal", "high", "low", "unknown"}},
						"reference_range": map[string]any{"type": "string"},
					},
					"required": []string{"name", "value"},
				},
			},
			"summary":         map[string]any{"type": "string", "minLength": 1},
			"recommendations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"risk_level":      map[string]any{"type": "string", "enum": []string{"low", "moderate", "high"}},
			"next_steps":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"findings", "summary", "risk_level"},
	}
}

// BuildMedicationsJSONSchema constrains the prescription-extraction output:
// an object with a single "medications" array.
func BuildMedicationsJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"medications": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"name":         map[string]any{"type": "string", "minLength": 1},
						"dosage":       map[string]any{"type": "string"},
						"frequency":    map[string]any{"type": "string"},
						"instructions": map[string]any{"type": "string"},
						"side_effects": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required": []string{"name"},
				},
			},
		},
		"required": []string{"medications"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
