package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/carelens/carelens/internal/llm"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
}

// Client implements llm.Analyzer against an OpenAI-compatible
// chat/completions endpoint, falling through to a rule-based engine when
// the model is unreachable or its output cannot be repaired.
type Client struct {
	cfg      Config
	http     *http.Client
	fallback llm.Analyzer
	log      *slog.Logger
}

func NewClient(cfg Config, fallback llm.Analyzer, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		fallback = llm.NewRuleBased(logger)
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		fallback: fallback,
		log:      logger,
	}
}
