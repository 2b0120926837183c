package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/extract"
)

// MedicalWhitelist is the character set recognition is restricted to.
// Tuned for medical documents: names, dosages, percentages, lab values.
const MedicalWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789.,:/%-() "

// ErrTimeout is returned when image recognition exceeds its time budget.
var ErrTimeout = errors.New("ocr recognition timed out")

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	Whitelist     string        // default MedicalWhitelist
	Timeout       time.Duration // image recognition budget, default 30s
	PSM           int           // e.g., 6 is good for uniform block of text
}

// Extractor implements extract.TextExtractor over tesseract (images) and
// go-fitz (PDF text layers).
type Extractor struct {
	cfg      Config
	sessions SessionFactory
	logger   *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.Whitelist == "" {
		cfg.Whitelist = MedicalWhitelist
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	e := &Extractor{cfg: cfg, logger: logger}
	e.sessions = &tesseractSessionFactory{cfg: cfg, runner: execRunner{}, log: logger}
	return e
}

// NewExtractorWithSessions substitutes the recognition session factory.
// Used by tests to stub the OCR engine.
func NewExtractorWithSessions(cfg Config, sessions SessionFactory, logger *slog.Logger) *Extractor {
	e := NewExtractor(cfg, logger)
	e.sessions = sessions
	return e
}

// Extract picks a strategy based on the declared media type.
func (e *Extractor) Extract(ctx context.Context, data []byte, contentType string) (extract.TextExtractionResult, error) {
	start := time.Now()
	format := constants.MapContentTypeToFormat(contentType)
	e.logger.Debug("starting text extraction", "content_type", contentType, "format", format, "bytes", len(data))
	switch format {
	case constants.PDF:
		res, err := e.extractPDF(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported media type", "content_type", contentType)
		return extract.TextExtractionResult{}, fmt.Errorf("unsupported media type: %q", contentType)
	}
}
