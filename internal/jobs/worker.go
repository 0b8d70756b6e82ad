package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// HandlerFunc executes one job.
type HandlerFunc func(ctx context.Context, job Job) error

// Worker polls a Queue and dispatches due jobs to handlers by name. Handler
// errors and panics are logged and swallowed; jobs are never retried.
type Worker struct {
	queue    *Queue
	interval time.Duration
	batch    int

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a worker polling q every interval.
func NewWorker(q *Queue, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{
		queue:    q,
		interval: interval,
		batch:    50,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds name to h, replacing any previous handler.
func (w *Worker) Register(name string, h HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[name] = h
}

// Start begins polling in the background until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	middleware.Logger.Info("Starting job worker", slog.Duration("interval", w.interval))
	go w.run(ctx)
}

// Stop cancels polling and waits for the in-flight job to finish. Claimed jobs
// that have not started go back on the queue.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	middleware.Logger.Info("Job worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce claims and executes every currently due job, returning how many ran.
func (w *Worker) RunOnce(ctx context.Context) int {
	ran := 0
	for ctx.Err() == nil {
		jobs, err := w.queue.Claim(ctx, w.batch)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "job claim failed", slog.String("error", err.Error()))
			return ran
		}
		for i, job := range jobs {
			if ctx.Err() != nil {
				w.requeue(ctx, jobs[i:])
				return ran
			}
			w.execute(ctx, job)
			ran++
		}
		if len(jobs) < w.batch {
			return ran
		}
	}
	return ran
}

// requeue returns claimed but unstarted jobs to the queue. ctx is already
// cancelled here, so the write runs on a detached context.
func (w *Worker) requeue(ctx context.Context, jobs []Job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.queue.Requeue(ctx, jobs...); err != nil {
		middleware.Logger.ErrorContext(ctx, "requeue failed",
			slog.Int("jobs", len(jobs)), slog.String("error", err.Error()))
		return
	}
	middleware.Logger.InfoContext(ctx, "requeued unstarted jobs", slog.Int("jobs", len(jobs)))
}

func (w *Worker) execute(ctx context.Context, job Job) {
	ctx = middleware.WithJobID(ctx, job.ID)
	ctx, span := observability.StartSpan(ctx, "job."+job.Name,
		attribute.String("job.id", job.ID),
		attribute.String("job.name", job.Name),
	)

	w.mu.RLock()
	h, ok := w.handlers[job.Name]
	w.mu.RUnlock()

	if !job.RunAt.IsZero() {
		observability.JobLag.WithLabelValues(job.Name).Observe(time.Since(job.RunAt).Seconds())
	}

	var err error
	if !ok {
		err = fmt.Errorf("no handler registered for job %q", job.Name)
	} else {
		err = safeCall(ctx, h, job)
	}
	observability.EndSpan(span, err)

	if err != nil {
		observability.JobsProcessed.WithLabelValues(job.Name, "failed").Inc()
		middleware.Logger.WarnContext(ctx, "job failed",
			slog.String("job", job.Name), slog.String("error", err.Error()))
		return
	}
	observability.JobsProcessed.WithLabelValues(job.Name, "ok").Inc()
	middleware.Logger.DebugContext(ctx, "job finished", slog.String("job", job.Name))
}

func safeCall(ctx context.Context, h HandlerFunc, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return h(ctx, job)
}
