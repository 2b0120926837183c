package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/extract"
)

// extractPDF reads the text layer page by page and concatenates the pages
// with a page-break marker. An empty result is valid: a scanned PDF has no
// text layer and is not an extraction error.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (extract.TextExtractionResult, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return extract.TextExtractionResult{SourceType: constants.PDF}, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	var b strings.Builder
	for i := 0; i < pages; i++ {
		select {
		case <-ctx.Done():
			return extract.TextExtractionResult{SourceType: constants.PDF}, ctx.Err()
		default:
		}
		txt, err := doc.Text(i)
		if err != nil {
			return extract.TextExtractionResult{SourceType: constants.PDF}, fmt.Errorf("pdf page %d: %w", i+1, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}

	return extract.TextExtractionResult{
		Text:       strings.TrimSpace(b.String()),
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-text",
	}, nil
}
