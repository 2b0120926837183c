package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelens/carelens/internal/llm"
)

const maxPromptChars = 6000

// Analyze implements llm.Analyzer using text-only chat/completions. Any
// failure along the way (HTTP, decode, schema) degrades to the rule-based
// fallback rather than erroring, so callers in practice always get a valid
// analysis.
func (c *Client) Analyze(ctx context.Context, text string) (llm.MedicalAnalysis, json.RawMessage, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("llm.analyze.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(text))

	schema := llm.BuildAnalysisJSONSchema()
	content, err := c.complete(ctx, analysisSystemPrompt, userPrompt(text), schema)
	if err != nil {
		c.log.Warn("llm.analyze.falling_back", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return c.fallback.Analyze(ctx, text)
	}

	cleaned, changed, err := llm.SanitizeAnalysisJSON(content)
	if err != nil {
		c.log.Warn("llm.analyze.falling_back", "req_id", rid, "error", err)
		return c.fallback.Analyze(ctx, text)
	}
	if len(changed) > 0 {
		c.log.Warn("llm.analyze.sanitize_applied", "req_id", rid, "changed", changed)
	}
	if err := llm.ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		c.log.Warn("llm.analyze.falling_back", "req_id", rid, "error", err)
		return c.fallback.Analyze(ctx, text)
	}

	var out llm.MedicalAnalysis
	if err := json.Unmarshal(cleaned, &out); err != nil {
		c.log.Warn("llm.analyze.falling_back", "req_id", rid, "error", err)
		return c.fallback.Analyze(ctx, text)
	}

	c.log.Info("llm.analyze.ok",
		"req_id", rid,
		"findings", len(out.Findings),
		"risk_level", out.RiskLevel,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}

// ExtractMedications implements llm.Analyzer for prescription documents.
func (c *Client) ExtractMedications(ctx context.Context, text string) ([]llm.MedicationEntry, json.RawMessage, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("llm.medications.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(text))

	schema := llm.BuildMedicationsJSONSchema()
	content, err := c.complete(ctx, medicationsSystemPrompt, userPrompt(text), schema)
	if err != nil {
		c.log.Warn("llm.medications.falling_back", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return c.fallback.ExtractMedications(ctx, text)
	}

	cleaned, changed, err := llm.SanitizeMedicationsJSON(content)
	if err != nil {
		c.log.Warn("llm.medications.falling_back", "req_id", rid, "error", err)
		return c.fallback.ExtractMedications(ctx, text)
	}
	if len(changed) > 0 {
		c.log.Warn("llm.medications.sanitize_applied", "req_id", rid, "changed", changed)
	}
	if err := llm.ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		c.log.Warn("llm.medications.falling_back", "req_id", rid, "error", err)
		return c.fallback.ExtractMedications(ctx, text)
	}

	var wrapper struct {
		Medications []llm.MedicationEntry `json:"medications"`
	}
	if err := json.Unmarshal(cleaned, &wrapper); err != nil {
		c.log.Warn("llm.medications.falling_back", "req_id", rid, "error", err)
		return c.fallback.ExtractMedications(ctx, text)
	}

	c.log.Info("llm.medications.ok",
		"req_id", rid,
		"count", len(wrapper.Medications),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return wrapper.Medications, cleaned, nil
}

// complete posts one chat/completions request and returns the first choice
// content, trimmed.
func (c *Client) complete(ctx context.Context, system, user string, schema map[string]any) ([]byte, error) {
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}
	return []byte(strings.TrimSpace(cc.Choices[0].Message.Content)), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.log.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

const analysisSystemPrompt = "You are a medical report analyst helping a patient understand a document. " +
	"Return ONLY JSON matching the provided schema. " +
	"Extract measurable findings with their values and reference ranges when visible. " +
	"Write the summary in plain language a patient can understand, without alarmist phrasing. " +
	"risk_level must be one of: low, moderate, high. " +
	"Never output null. If a field is not present, omit it. " +
	"Never invent values that are not in the document."

const medicationsSystemPrompt = "You are a prescription parser. Return ONLY JSON matching the provided schema: " +
	"an object with a 'medications' array. " +
	"Extract each medication's name, dosage, frequency and free-text instructions exactly as written. " +
	"List side effects only if the document mentions them. " +
	"Never output null. If a field is not present, omit it."

func userPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Document text (first ~6k chars):\n")
	if len(text) > maxPromptChars {
		b.WriteString(text[:maxPromptChars])
	} else {
		b.WriteString(text)
	}
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
