package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1 of the ingestion pipeline: raw upload bytes plus a
// declared media type in, extracted text out. Implementations must honor ctx
// cancellation and release any recognition resources before returning.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (TextExtractionResult, error)
}

// WordBox is a single recognized word with its bounding box, as reported by
// the OCR engine. PDF text extraction produces no boxes.
type WordBox struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
	Left       int     `json:"left"`
	Top        int     `json:"top"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "image-ocr"
	Confidence float32
	Words      []WordBox
	Duration   time.Duration
	Warnings   []string
}
