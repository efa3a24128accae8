package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the buffer has no free slot.
	ErrQueueFull = errors.New("queue full")
	// ErrNotRunning is returned before Start and after Stop.
	ErrNotRunning = errors.New("queue not running")
)

// Handler processes one queued item.
type Handler[T any] func(ctx context.Context, item T) error

// Config configures worker pool behaviour.
type Config struct {
	Workers     int
	BufferSize  int
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *zap.Logger
}

// Queue is an in-memory worker pool. Enqueue never blocks, and Stop drains
// whatever is already buffered.
type Queue[T any] struct {
	name   string
	handle Handler[T]
	cfg    Config
	logger *zap.Logger

	items   chan T
	mu      sync.RWMutex
	running bool
	stopped bool
	ctx     context.Context
	wg      sync.WaitGroup
}

// New builds a queue that feeds items to handle.
func New[T any](name string, handle Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue[T]{
		name:   name,
		handle: handle,
		cfg:    cfg,
		logger: logger.With(zap.String("queue", name)),
		items:  make(chan T, cfg.BufferSize),
	}
}

// Start launches the workers. Handlers receive ctx; it should outlive Stop so
// drained items can still be written. Calls after the first are ignored.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.stopped {
		return
	}
	q.ctx = ctx
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.running = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Enqueue hands item to the pool without blocking.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return ErrNotRunning
	}
	select {
	case q.items <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new items, drains the buffer and waits for the workers.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.running {
		q.stopped = true
		q.mu.Unlock()
		return
	}
	q.running = false
	q.stopped = true
	close(q.items)
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("queue stopped")
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for item := range q.items {
		q.process(item)
	}
}

func (q *Queue[T]) process(item T) {
	var err error
	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		if err = q.handle(q.ctx, item); err == nil {
			return
		}
		if attempt == q.cfg.MaxAttempts {
			break
		}
		q.logger.Warn("job failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		timer := time.NewTimer(q.cfg.RetryDelay)
		select {
		case <-q.ctx.Done():
			timer.Stop()
			q.logger.Error("job abandoned", zap.Error(q.ctx.Err()))
			return
		case <-timer.C:
		}
	}
	q.logger.Error("job exceeded retries", zap.Int("attempts", q.cfg.MaxAttempts), zap.Error(err))
}
