package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/carelens/carelens/internal/extract"
)

// ImageResult is the raw output of one recognition session.
type ImageResult struct {
	Text       string
	Confidence float32 // mean word confidence, 0..1
	Words      []extract.WordBox
	Warnings   []string
}

// Session is a single recognition run over one image. Close releases the
// session's resources (worker process, temp files); it is idempotent and
// safe to call while Recognize is still in flight.
type Session interface {
	Recognize(ctx context.Context) (ImageResult, error)
	Close() error
}

// SessionFactory opens recognition sessions. Stubbed in tests.
type SessionFactory interface {
	Open(data []byte) (Session, error)
}

type tesseractSessionFactory struct {
	cfg    Config
	runner Runner
	log    *slog.Logger
}

func (f *tesseractSessionFactory) Open(data []byte) (Session, error) {
	dir, err := os.MkdirTemp("", "carelens-ocr-*")
	if err != nil {
		return nil, err
	}
	input := filepath.Join(dir, "input.img")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &tesseractSession{cfg: f.cfg, runner: f.runner, log: f.log, dir: dir, input: input}, nil
}

type tesseractSession struct {
	cfg    Config
	runner Runner
	log    *slog.Logger
	dir    string
	input  string

	closeOnce sync.Once
	closeErr  error
}

func (s *tesseractSession) baseArgs() []string {
	args := []string{s.input, "stdout", "-l", s.cfg.TesseractLang}
	if s.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(s.cfg.PSM))
	}
	if s.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", s.cfg.TessdataDir)
	}
	if s.cfg.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+s.cfg.Whitelist)
	}
	return args
}

// Recognize runs tesseract twice: once for the plain text and once in TSV
// mode for word confidences and bounding boxes. The TSV pass is best-effort.
func (s *tesseractSession) Recognize(ctx context.Context) (ImageResult, error) {
	out, errb, err := s.runner.Run(ctx, s.cfg.Tesseract, s.baseArgs()...)
	if err != nil {
		return ImageResult{Warnings: []string{string(errb)}}, fmt.Errorf("tesseract: %w", err)
	}
	res := ImageResult{Text: string(out)}

	tsvOut, _, tsvErr := s.runner.Run(ctx, s.cfg.Tesseract, append(s.baseArgs(), "tsv")...)
	if tsvErr != nil {
		res.Warnings = append(res.Warnings, "tsv pass failed: "+tsvErr.Error())
		return res, nil
	}
	res.Words, res.Confidence = parseTSV(string(tsvOut))
	return res, nil
}

func (s *tesseractSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = os.RemoveAll(s.dir)
	})
	return s.closeErr
}

// parseTSV extracts word boxes and the mean word confidence (0..1) from
// tesseract TSV output. Columns: level, page_num, block_num, par_num,
// line_num, word_num, left, top, width, height, conf, text.
func parseTSV(tsv string) ([]extract.WordBox, float32) {
	var words []extract.WordBox
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr, text := cols[10], strings.TrimSpace(cols[11])
		if text == "" || confStr == "" || confStr == "-1" {
			continue
		}
		conf, err := strconv.ParseFloat(confStr, 64)
		if err != nil {
			continue
		}
		box := extract.WordBox{Text: text, Confidence: float32(conf / 100.0)}
		box.Left, _ = strconv.Atoi(cols[6])
		box.Top, _ = strconv.Atoi(cols[7])
		box.Width, _ = strconv.Atoi(cols[8])
		box.Height, _ = strconv.Atoi(cols[9])
		words = append(words, box)
		sum += conf
		n++
	}
	if n == 0 {
		return words, 0
	}
	return words, float32(sum / n / 100.0)
}
