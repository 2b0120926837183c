package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

var riskSynonyms = map[string]string{
	"minimal":  "low",
	"mild":     "low",
	"medium":   "moderate",
	"elevated": "moderate",
	"severe":   "high",
	"critical": "high",
}

// SanitizeAnalysisJSON normalizes a model response that almost matches the
// analysis schema, so the document can still validate:
//   - lowercases and maps risk_level synonyms onto the allowed enum
//   - coerces numeric finding values to strings
//   - drops null/empty optionals and unknown keys
//
// Returns the cleaned document and the list of adjustments made.
func SanitizeAnalysisJSON(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string

	if v, ok := m["risk_level"].(string); ok {
		rl := strings.ToLower(strings.TrimSpace(v))
		if mapped, ok := riskSynonyms[rl]; ok {
			changed = append(changed, "risk_level:"+rl+"->"+mapped)
			rl = mapped
		}
		m["risk_level"] = rl
	}

	if findings, ok := m["findings"].([]any); ok {
		for _, f := range findings {
			fm, ok := f.(map[string]any)
			if !ok {
				continue
			}
			switch t := fm["value"].(type) {
			case float64:
				fm["value"] = trimFloat(t)
				changed = append(changed, "findings.value(number)")
			case nil:
				fm["value"] = ""
				changed = append(changed, "findings.value(null)")
			}
			if s, ok := fm["status"].(string); ok {
				fm["status"] = strings.ToLower(strings.TrimSpace(s))
			}
		}
	}

	allowed := map[string]struct{}{
		"findings": {}, "summary": {}, "recommendations": {},
		"risk_level": {}, "next_steps": {},
	}
	for k, v := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			changed = append(changed, k+"(unknown)")
			continue
		}
		if v == nil {
			delete(m, k)
			changed = append(changed, k+"(null)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, changed, nil
}

// SanitizeMedicationsJSON tolerates the common model mistake of returning a
// bare array instead of the {"medications": [...]} wrapper, and drops null
// or empty optional fields on each entry.
func SanitizeMedicationsJSON(raw []byte) ([]byte, []string, error) {
	var changed []string

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		trimmed = `{"medications":` + trimmed + `}`
		changed = append(changed, "wrapped-bare-array")
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return nil, changed, fmt.Errorf("sanitize: decode: %w", err)
	}

	if meds, ok := m["medications"].([]any); ok {
		for _, e := range meds {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}
			for k, v := range em {
				if v == nil {
					delete(em, k)
					changed = append(changed, k+"(null)")
				} else if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
					delete(em, k)
					changed = append(changed, k+"(empty)")
				}
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, changed, nil
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
