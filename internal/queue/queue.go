// Package queue runs named background jobs on an in-process worker pool and records
// their lifecycle (waiting, active, completed, failed) in a pluggable Store.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nadmax/pulse/internal/job"
	"github.com/nadmax/pulse/internal/metrics"
	"go.uber.org/zap"
)

var (
	ErrQueueClosed   = errors.New("queue is closed")
	ErrJobNotRunning = errors.New("job is not running")
)

type HandlerFunc func(ctx context.Context, payload map[string]any) error

type Options struct {
	Workers    int
	BufferSize int
	// JobTimeout bounds each handler invocation. Zero disables the limit.
	JobTimeout time.Duration
}

type Queue struct {
	store  Store
	logger *zap.Logger
	opts   Options

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	closed   bool

	runningMu sync.Mutex
	running   map[string]context.CancelFunc

	jobs      chan *job.Job
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(store Store, logger *zap.Logger, opts Options) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = opts.Workers * 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		store:    store,
		logger:   logger,
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
		running:  make(map[string]context.CancelFunc),
		jobs:     make(chan *job.Job, opts.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}

	return q
}

// RegisterHandler binds a handler to a job name, replacing any earlier registration.
func (q *Queue) RegisterHandler(name string, handler HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = handler
}

func (q *Queue) handler(name string) (HandlerFunc, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	h, ok := q.handlers[name]
	return h, ok
}

// Enqueue records a waiting job and hands it to the worker pool without waiting for it to run.
func (q *Queue) Enqueue(ctx context.Context, name string, payload map[string]any) (string, error) {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return "", ErrQueueClosed
	}

	j := job.New(name, payload)
	if err := q.store.Save(ctx, j); err != nil {
		return "", fmt.Errorf("failed to save job %s: %w", name, err)
	}

	metrics.RecordJobEnqueued(name)
	q.dispatch(j)

	return j.ID, nil
}

func (q *Queue) dispatch(j *job.Job) {
	select {
	case q.jobs <- j:
	default:
		go func() {
			select {
			case q.jobs <- j:
			case <-q.ctx.Done():
			}
		}()
	}
}

func (q *Queue) GetStatus(ctx context.Context, id string) (*job.Job, error) {
	return q.store.Get(ctx, id)
}

func (q *Queue) List(ctx context.Context) ([]*job.Job, error) {
	return q.store.List(ctx)
}

// Depth is the number of dispatched jobs not yet picked up by a worker.
func (q *Queue) Depth() int {
	return len(q.jobs)
}

func (q *Queue) Workers() int {
	return q.opts.Workers
}

// Cancel cancels the context of a job that is currently running on this queue.
func (q *Queue) Cancel(id string) error {
	q.runningMu.Lock()
	cancel, ok := q.running[id]
	q.runningMu.Unlock()
	if !ok {
		return ErrJobNotRunning
	}

	cancel()
	return nil
}

// Close stops accepting jobs, cancels running handlers and waits for the workers to exit.
// Jobs still buffered stay in the store as waiting.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()

		q.cancel()
		q.wg.Wait()
	})

	return q.store.Close()
}
