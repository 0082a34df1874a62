package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/pipeline"
)

// Extractor is the part of pipeline.Orchestrator the queue drives.
type Extractor interface {
	Extract(ctx context.Context, documentID uuid.UUID, userID string) (pipeline.Outcome, error)
}

// Stats counts finished jobs.
type Stats struct {
	Processed int64
	Manual    int64
	Failed    int64
	Skipped   int64
}

type ExtractQueue struct {
	ext     Extractor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	processed, manual, failed, skipped atomic.Int64
}

type Option func(*ExtractQueue)

func WithWorkers(n int) Option {
	return func(q *ExtractQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ExtractQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ExtractQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("async: queue is shutting down")

func NewExtractQueue(ext Extractor, logger *slog.Logger, opts ...Option) *ExtractQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ExtractQueue{
		ext:     ext,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ExtractQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.handle(workerID, job)
				}
				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ExtractQueue) handle(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	out, err := q.ext.Extract(ctx, job.DocumentID, job.UserID)
	log := q.logger.With("worker_id", workerID, "document_id", job.DocumentID, "wait_ms", time.Since(job.SubmittedAt).Milliseconds())
	switch {
	case errors.Is(err, common.ErrAlreadyRunning):
		q.skipped.Add(1)
		log.Info("queue.job.skipped", "reason", "already running")
	case err != nil:
		q.failed.Add(1)
		log.Error("queue.job.failed", "error", err)
	case out.RequiresManualEntry:
		q.manual.Add(1)
		log.Warn("queue.job.manual", "result_id", out.ResultID)
	default:
		q.processed.Add(1)
		log.Info("queue.job.done", "result_id", out.ResultID, "method", out.Method, "elapsed_ms", out.ProcessingTimeMs)
	}
}

// Enqueue blocks when the buffer is full so a large batch applies backpressure to its producer.
func (q *ExtractQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return nil
	default:
		q.logger.Debug("queue.full", "document_id", job.DocumentID)
	}
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ExtractQueue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}

func (q *ExtractQueue) Stats() Stats {
	return Stats{
		Processed: q.processed.Load(),
		Manual:    q.manual.Load(),
		Failed:    q.failed.Load(),
		Skipped:   q.skipped.Load(),
	}
}
