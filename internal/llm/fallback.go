package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// RuleBased is the built-in degraded analysis engine. The OpenAI client
// falls through to it when the model is unreachable or returns garbage, and
// the service wires it directly when no API key is configured, so an
// unconfigured engine is an explicit variant rather than a nil handle.
type RuleBased struct {
	log *slog.Logger
}

func NewRuleBased(log *slog.Logger) *RuleBased {
	if log == nil {
		log = slog.Default()
	}
	return &RuleBased{log: log}
}

var (
	reMeasurement = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z ()/]{2,40}?)\s*[:\-]\s*(\d+(?:\.\d+)?\s*[A-Za-z/%]*)`)
	reDosage      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|units?|iu)\b`)
	reFrequency   = regexp.MustCompile(`(?i)\b(once|twice|three times|thrice|every \d+ hours?|daily|weekly|at bedtime|as needed)\b`)
)

const maxFallbackFindings = 20

func (r *RuleBased) Analyze(_ context.Context, text string) (MedicalAnalysis, json.RawMessage, error) {
	var findings []Finding
	for _, m := range reMeasurement.FindAllStringSubmatch(text, maxFallbackFindings) {
		findings = append(findings, Finding{
			Name:   strings.TrimSpace(m[1]),
			Value:  strings.TrimSpace(m[2]),
			Status: "unknown",
		})
	}

	summary := "Document processed. No structured values could be identified automatically; please review the original document with your healthcare provider."
	if len(findings) > 0 {
		summary = fmt.Sprintf("Document processed. %d measurable value(s) were identified; automated interpretation was limited, so please review them with your healthcare provider.", len(findings))
	}

	analysis := MedicalAnalysis{
		Findings:        findings,
		Summary:         summary,
		Recommendations: []string{"Share this document with your healthcare provider for a professional review."},
		RiskLevel:       "low",
		NextSteps:       []string{"Keep the original document for your records."},
	}
	raw, err := json.Marshal(analysis)
	if err != nil {
		return MedicalAnalysis{}, nil, fmt.Errorf("marshal fallback analysis: %w", err)
	}
	r.log.Info("llm.analyze.rule_based", "findings", len(findings))
	return analysis, raw, nil
}

func (r *RuleBased) ExtractMedications(_ context.Context, text string) ([]MedicationEntry, json.RawMessage, error) {
	var meds []MedicationEntry
	seen := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		dm := reDosage.FindStringSubmatch(line)
		if dm == nil {
			continue
		}
		name := firstWord(line)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		entry := MedicationEntry{
			Name:   name,
			Dosage: strings.TrimSpace(dm[0]),
		}
		if fm := reFrequency.FindString(line); fm != "" {
			entry.Frequency = strings.ToLower(fm)
		}
		meds = append(meds, entry)
	}

	raw, err := json.Marshal(map[string]any{"medications": meds})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal fallback medications: %w", err)
	}
	r.log.Info("llm.medications.rule_based", "count", len(meds))
	return meds, raw, nil
}

func firstWord(line string) string {
	for _, f := range strings.Fields(line) {
		w := strings.Trim(f, ".,:;()-")
		// skip list markers and bare numbers
		if w == "" || reDosage.MatchString(w) || !startsWithLetter(w) {
			continue
		}
		return w
	}
	return ""
}

func startsWithLetter(s string) bool {
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
