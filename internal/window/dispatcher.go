package window

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/1broseidon/regionbar/internal/platform"
)

// Dispatcher runs window commands off the caller's goroutine. Failures are
// logged and never returned: the next tracking cycle reports the real outcome.
type Dispatcher interface {
	Dispatch(op string, id platform.WindowID, fn func() error)
}

type command struct {
	op string
	id platform.WindowID
	fn func() error
}

// Pool is a bounded worker pool. When the queue is full new commands are
// dropped with a warning rather than blocking the caller.
type Pool struct {
	jobs   chan command
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ Dispatcher = (*Pool)(nil)

// NewPool starts workers goroutines reading from a queue of the given length.
func NewPool(workers, queue int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		jobs:   make(chan command, queue),
		logger: logger,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

// Dispatch queues fn. It never blocks.
func (p *Pool) Dispatch(op string, id platform.WindowID, fn func() error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Debug("command dropped after shutdown", "op", op, "window_id", id)
		return
	}

	select {
	case p.jobs <- command{op: op, id: id, fn: fn}:
	default:
		p.logger.Warn("command queue full, dropping command", "op", op, "window_id", id)
	}
}

// Close stops accepting commands and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for cmd := range p.jobs {
		run(p.logger, cmd)
	}
}

// Inline runs commands synchronously on the calling goroutine. Tests use it
// to observe command effects deterministically.
type Inline struct {
	Logger *slog.Logger
}

var _ Dispatcher = Inline{}

func (d Inline) Dispatch(op string, id platform.WindowID, fn func() error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	run(logger, command{op: op, id: id, fn: fn})
}

func run(logger *slog.Logger, cmd command) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("window command panic recovered", "op", cmd.op, "window_id", cmd.id, "panic", r)
		}
	}()

	err := cmd.fn()
	switch {
	case err == nil:
	case errors.Is(err, platform.ErrWindowGone):
		logger.Debug("window command on closed window", "op", cmd.op, "window_id", cmd.id)
	default:
		logger.Warn("window command failed", "op", cmd.op, "window_id", cmd.id, "error", err)
	}
}
