package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/regionbar/internal/periodic"
	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/1broseidon/regionbar/internal/window"
)

// DefaultPollInterval is the sleep between tracking cycles.
const DefaultPollInterval = 250 * time.Millisecond

// ErrUnknownWindow is returned when a handle is not in the tracked set.
var ErrUnknownWindow = errors.New("window is not tracked")

// Config holds configuration for the manager.
type Config struct {
	Backend  platform.Backend
	Window   window.Options
	Interval time.Duration
	Logger   *slog.Logger
	// SelfPID is the pid whose windows are never tracked. Zero means os.Getpid().
	SelfPID int
}

// Manager owns the tracked window set. Update is the only writer; every
// other method is safe to call from any goroutine.
type Manager struct {
	backend  platform.Backend
	winOpts  window.Options
	interval time.Duration
	selfPID  int
	logger   *slog.Logger
	events   observers

	// cycleMu serializes Update so exactly one cycle runs at a time.
	cycleMu sync.Mutex
	// excluded holds handles owned by this process while they remain enumerated.
	excluded map[platform.WindowID]struct{}

	mu             sync.RWMutex
	windows        map[platform.WindowID]*window.Window
	lastForeground platform.WindowID
	foreground     *window.Window
	cycles         uint64
}

// NewManager creates a manager with an empty tracked set.
func NewManager(cfg Config) *Manager {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	selfPID := cfg.SelfPID
	if selfPID == 0 {
		selfPID = os.Getpid()
	}
	winOpts := cfg.Window
	if winOpts.Controller == nil {
		winOpts.Controller = cfg.Backend
	}
	if winOpts.Logger == nil {
		winOpts.Logger = logger
	}

	return &Manager{
		backend:  cfg.Backend,
		winOpts:  winOpts,
		interval: interval,
		selfPID:  selfPID,
		logger:   logger,
		excluded: make(map[platform.WindowID]struct{}),
		windows:  make(map[platform.WindowID]*window.Window),
	}
}

// Subscribe registers fn for events of the given kind.
func (m *Manager) Subscribe(kind EventKind, fn Handler) Subscription {
	return m.events.add(kind, fn)
}

// Unsubscribe removes a handler. It reports whether the subscription existed.
func (m *Manager) Unsubscribe(sub Subscription) bool {
	return m.events.remove(sub)
}

func (m *Manager) OnWindowCreated(fn Handler) Subscription {
	return m.Subscribe(WindowCreated, fn)
}

func (m *Manager) OnWindowDestroyed(fn Handler) Subscription {
	return m.Subscribe(WindowDestroyed, fn)
}

func (m *Manager) OnWindowTitleChanged(fn Handler) Subscription {
	return m.Subscribe(WindowTitleChanged, fn)
}

func (m *Manager) OnWindowRectangleChanged(fn Handler) Subscription {
	return m.Subscribe(WindowRectangleChanged, fn)
}

func (m *Manager) OnForegroundWindowChanged(fn Handler) Subscription {
	return m.Subscribe(ForegroundWindowChanged, fn)
}

// Windows returns the tracked windows ordered by handle.
func (m *Manager) Windows() []*window.Window {
	m.mu.RLock()
	out := make([]*window.Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, w)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Lookup returns the tracked window for id.
func (m *Manager) Lookup(id platform.WindowID) (*window.Window, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.windows[id]
	return w, ok
}

// Foreground returns the tracked foreground window, or nil.
func (m *Manager) Foreground() *window.Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.foreground
}

// Len returns the number of tracked windows.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.windows)
}

// Cycles returns the number of completed update cycles.
func (m *Manager) Cycles() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycles
}

// Serve runs Update every interval until ctx is cancelled.
func (m *Manager) Serve(ctx context.Context) error {
	return periodic.Run(ctx, periodic.Options{
		Name:     "tracker",
		Interval: m.interval,
		Logger:   m.logger,
	}, func(context.Context) error {
		return m.Update()
	})
}

func (m *Manager) String() string { return "tracker" }

// Update runs one poll/diff cycle: created, title and rectangle events in
// enumeration order, then destroyed events, then the foreground check.
func (m *Manager) Update() error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	infos, err := m.backend.ListWindows()
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}

	seen := make(map[platform.WindowID]struct{}, len(infos))
	for _, info := range infos {
		if _, dup := seen[info.ID]; dup {
			continue
		}
		seen[info.ID] = struct{}{}
		m.observe(info)
	}

	m.removeMissing(seen)
	m.updateForeground()

	m.mu.Lock()
	m.cycles++
	m.mu.Unlock()
	return nil
}

func (m *Manager) observe(info platform.WindowInfo) {
	if _, self := m.excluded[info.ID]; self {
		return
	}

	w, tracked := m.Lookup(info.ID)
	if !tracked {
		proc, err := m.backend.ResolveProcess(info.ID)
		if err != nil {
			// Retried next cycle, or dropped when the window disappears.
			m.logger.Debug("skipping window, process lookup failed", "window_id", info.ID, "error", err)
			return
		}
		if proc.PID == m.selfPID {
			m.excluded[info.ID] = struct{}{}
			return
		}

		w = window.New(info, proc, m.winOpts)
		m.mu.Lock()
		m.windows[info.ID] = w
		m.mu.Unlock()

		m.logger.Debug("window created", "window_id", info.ID, "title", info.Title,
			"bounds", info.Bounds.String(), "pid", proc.PID, "exe", proc.Executable)
		m.events.emit(m.logger, WindowCreated, w)
		return
	}

	if info.Title != w.Title() {
		w.SetTitle(info.Title)
		m.logger.Debug("window title changed", "window_id", info.ID, "title", info.Title)
		m.events.emit(m.logger, WindowTitleChanged, w)
	}

	if info.Bounds != w.Bounds() {
		w.SetBounds(info.Bounds)
		m.logger.Debug("window rectangle changed", "window_id", info.ID, "bounds", info.Bounds.String())
		m.events.emit(m.logger, WindowRectangleChanged, w)
	}
}

func (m *Manager) removeMissing(seen map[platform.WindowID]struct{}) {
	for id := range m.excluded {
		if _, ok := seen[id]; !ok {
			delete(m.excluded, id)
		}
	}

	var gone []*window.Window
	m.mu.RLock()
	for id, w := range m.windows {
		if _, ok := seen[id]; !ok {
			gone = append(gone, w)
		}
	}
	m.mu.RUnlock()

	sort.Slice(gone, func(i, j int) bool { return gone[i].ID() < gone[j].ID() })
	for _, w := range gone {
		m.logger.Debug("window destroyed", "window_id", w.ID(), "title", w.Title())
		m.events.emit(m.logger, WindowDestroyed, w)

		m.mu.Lock()
		delete(m.windows, w.ID())
		if m.foreground == w {
			m.foreground = nil
		}
		m.mu.Unlock()
	}
}

func (m *Manager) updateForeground() {
	id, err := m.backend.ActiveWindow()
	if err != nil {
		m.logger.Debug("failed to read foreground window", "error", err)
		return
	}

	m.mu.Lock()
	if id == m.lastForeground {
		m.mu.Unlock()
		return
	}
	fg := m.windows[id]
	m.foreground = fg
	m.lastForeground = id
	m.mu.Unlock()

	m.logger.Debug("foreground window changed", "window_id", id, "tracked", fg != nil)
	m.events.emit(m.logger, ForegroundWindowChanged, fg)
}
