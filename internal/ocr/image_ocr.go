package ocr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/extract"
)

// extractImage races one recognition session against the configured time
// budget. Whichever settles first wins; the session is torn down before
// returning on the success, error and timeout paths alike, with at most one
// release attempt. A failed release never masks the original outcome.
func (e *Extractor) extractImage(ctx context.Context, data []byte) (extract.TextExtractionResult, error) {
	sess, err := e.sessions.Open(data)
	if err != nil {
		return extract.TextExtractionResult{SourceType: constants.IMAGE}, fmt.Errorf("open ocr session: %w", err)
	}

	var releaseOnce sync.Once
	release := func(cause string) {
		releaseOnce.Do(func() {
			if cerr := sess.Close(); cerr != nil {
				e.logger.Warn("ocr.session.close_failed", "cause", cause, "error", cerr)
			}
		})
	}

	recCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		res ImageResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		r, rerr := sess.Recognize(recCtx)
		done <- outcome{res: r, err: rerr}
	}()

	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		release("settled")
		if out.err != nil {
			return extract.TextExtractionResult{SourceType: constants.IMAGE}, fmt.Errorf("image ocr: %w", out.err)
		}
		return extract.TextExtractionResult{
			Text:       Normalize(out.res.Text),
			Pages:      1,
			SourceType: constants.IMAGE,
			Method:     "image-ocr",
			Confidence: out.res.Confidence,
			Words:      out.res.Words,
			Warnings:   out.res.Warnings,
		}, nil
	case <-timer.C:
		cancel()
		release("timeout")
		e.logger.Warn("ocr.recognition.timeout", "budget", e.cfg.Timeout)
		return extract.TextExtractionResult{SourceType: constants.IMAGE}, fmt.Errorf("image ocr after %s: %w", e.cfg.Timeout, ErrTimeout)
	}
}
