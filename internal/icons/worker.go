// Package icons fills in window icons off the tracking goroutine.
package icons

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/regionbar/internal/periodic"
	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/1broseidon/regionbar/internal/tracker"
	"github.com/1broseidon/regionbar/internal/window"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultSize         = 32
)

// Extractor reads a window's icon from the OS.
type Extractor interface {
	WindowIcon(id platform.WindowID, size int) (image.Image, error)
}

// Config holds configuration for the worker.
type Config struct {
	Extractor Extractor
	Overrides *Overrides
	Interval  time.Duration
	Size      int
	Logger    *slog.Logger
}

// Worker extracts icons for queued windows one at a time, in FIFO order.
type Worker struct {
	extractor Extractor
	overrides *Overrides
	interval  time.Duration
	size      int
	logger    *slog.Logger

	mu     sync.Mutex
	queue  []*window.Window
	queued map[platform.WindowID]struct{}
}

// NewWorker creates an idle worker.
func NewWorker(cfg Config) *Worker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	size := cfg.Size
	if size <= 0 {
		size = DefaultSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		extractor: cfg.Extractor,
		overrides: cfg.Overrides,
		interval:  interval,
		size:      size,
		logger:    logger,
		queued:    make(map[platform.WindowID]struct{}),
	}
}

// SetOverrides swaps the override set used for newly created windows.
func (w *Worker) SetOverrides(o *Overrides) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overrides = o
}

// Attach subscribes the worker to window creation on m.
func (w *Worker) Attach(m *tracker.Manager) (detach func()) {
	sub := m.OnWindowCreated(w.HandleCreated)
	return func() { m.Unsubscribe(sub) }
}

// HandleCreated applies an override for the window's module, or queues a
// visible window for extraction.
func (w *Worker) HandleCreated(win *window.Window) {
	w.mu.Lock()
	overrides := w.overrides
	w.mu.Unlock()

	if img, ok := overrides.Lookup(win.Process().ModuleName()); ok {
		win.SetIcon(img)
		return
	}
	if win.State().Visible {
		w.Enqueue(win)
	}
}

// Enqueue adds win to the back of the queue unless it is already pending.
func (w *Worker) Enqueue(win *window.Window) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.queued[win.ID()]; ok {
		return
	}
	w.queued[win.ID()] = struct{}{}
	w.queue = append(w.queue, win)
}

// Pending returns the number of queued windows.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *Worker) next() *window.Window {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil
	}
	win := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	delete(w.queued, win.ID())
	return win
}

// Serve drains the queue and sleeps for the poll interval whenever it is
// empty, until ctx is cancelled.
func (w *Worker) Serve(ctx context.Context) error {
	return periodic.Run(ctx, periodic.Options{
		Name:     "icons",
		Interval: w.interval,
		Logger:   w.logger,
	}, w.Drain)
}

func (w *Worker) String() string { return "icons" }

// Drain processes queued windows until the queue is empty or ctx is done.
func (w *Worker) Drain(ctx context.Context) error {
	for ctx.Err() == nil {
		win := w.next()
		if win == nil {
			return nil
		}
		w.extract(win)
	}
	return nil
}

func (w *Worker) extract(win *window.Window) {
	if w.extractor == nil {
		return
	}
	if !win.State().Valid {
		w.logger.Debug("skipping icon for closed window", "window_id", win.ID())
		return
	}
	img, err := w.extractor.WindowIcon(win.ID(), w.size)
	if err != nil {
		w.logger.Debug("icon extraction failed", "window_id", win.ID(), "error", err)
		return
	}
	win.SetIcon(img)
}
