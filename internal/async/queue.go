// Package async runs ingestion pipelines as detached background work. The
// upload handler enqueues and returns; a fixed pool of workers drains the
// queue, and a worker-level recover guarantees that no job failure can
// escape silently or take a worker down.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelens/carelens/internal/pipeline"
)

// Job is one detached unit of pipeline work: the report row already exists
// in processing state, the bytes travel with the job.
type Job struct {
	ReportID    uuid.UUID
	Data        []byte
	ContentType string
}

// Enqueuer is the handler-facing side of the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

type ReportQueue struct {
	orch    *pipeline.Orchestrator
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ReportQueue)

func WithWorkers(n int) Option {
	return func(q *ReportQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ReportQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ReportQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewReportQueue(orch *pipeline.Orchestrator, logger *slog.Logger, opts ...Option) *ReportQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ReportQueue{
		orch:    orch,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ReportQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.runOne(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// runOne supervises a single pipeline execution. The orchestrator already
// absorbs its own failures; the recover here is the last line so that a bug
// in that handling cannot kill the worker.
func (q *ReportQueue) runOne(workerID int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("worker recovered from panic", "worker_id", workerID, "report_id", job.ReportID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	q.orch.Process(ctx, job.ReportID, job.Data, job.ContentType)
	q.logger.Info("report processed", "worker_id", workerID, "report_id", job.ReportID)
}

func (q *ReportQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "report_id", job.ReportID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued report for processing", "report_id", job.ReportID, "bytes", len(job.Data))
	default:
		q.logger.Warn("queue full, applying backpressure", "report_id", job.ReportID)
		q.ch <- job
	}
	return nil
}

func (q *ReportQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
