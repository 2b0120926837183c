// Command extractcheck runs text extraction against a local file and logs
// the outcome. Useful for tuning tesseract settings without the full
// service running.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/classify"
	"github.com/carelens/carelens/internal/common"
	"github.com/carelens/carelens/internal/ocr"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extractcheck <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	contentType := contentTypeForExt(filepath.Ext(path))
	if contentType == "" {
		logger.Error("unsupported file extension", "path", path)
		os.Exit(2)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:   cfg.TesseractBin,
		TessdataDir: cfg.TessdataDir,
		Timeout:     cfg.OCRTimeout,
		PSM:         6,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := extractor.Extract(ctx, data, contentType)
	if err != nil {
		logger.Error("extraction failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	logger.Info("extraction OK",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"words", len(res.Words),
		"warnings", len(res.Warnings),
		"report_type", classify.Classify(res.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	fmt.Println(res.Text)
}

func contentTypeForExt(ext string) string {
	switch constants.NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
