// Package daemon wires the tracker, tiler, icon worker, IPC server and
// hotkeys together and runs them under one supervisor.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/1broseidon/regionbar/internal/config"
	"github.com/1broseidon/regionbar/internal/hotkeys"
	"github.com/1broseidon/regionbar/internal/icons"
	"github.com/1broseidon/regionbar/internal/ipc"
	"github.com/1broseidon/regionbar/internal/logging"
	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/1broseidon/regionbar/internal/regions"
	"github.com/1broseidon/regionbar/internal/tracker"
	"github.com/1broseidon/regionbar/internal/window"
)

// Deps are the OS-facing collaborators. Only Backend is required.
type Deps struct {
	Backend   platform.Backend
	Extractor icons.Extractor
	// Binder enables global hotkeys when set.
	Binder hotkeys.Binder
	// EventLoop is run as a service when set; hotkeys need it on X11.
	EventLoop  EventLooper
	SocketPath string
	// Load re-reads configuration on reload. Nil makes reload fail.
	Load   func() (*config.Config, error)
	Logger *slog.Logger
	// Level is adjusted to the configured log_level on reload.
	Level *slog.LevelVar
	// LevelPinned keeps Level untouched on reload, for a level set on the
	// command line.
	LevelPinned bool
}

// Daemon owns every long-running component.
type Daemon struct {
	logger    *slog.Logger
	level     *slog.LevelVar
	pinned    bool
	load      func() (*config.Config, error)
	eventLoop EventLooper

	pool    *window.Pool
	manager *tracker.Manager
	tiler   *regions.Tiler
	icons   *icons.Worker
	server  *ipc.Server

	mu  sync.RWMutex
	cfg *config.Config
}

// New builds the component graph from cfg. Nothing runs until Run.
func New(cfg *config.Config, deps Deps) (*Daemon, error) {
	if deps.Backend == nil {
		return nil, fmt.Errorf("daemon requires a platform backend")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		logger:    logger,
		level:     deps.Level,
		pinned:    deps.LevelPinned,
		load:      deps.Load,
		eventLoop: deps.EventLoop,
		cfg:       cfg,
	}

	d.pool = window.NewPool(cfg.CommandWorkers, cfg.CommandQueue, logger)
	d.manager = tracker.NewManager(tracker.Config{
		Backend: deps.Backend,
		Window: window.Options{
			Dispatcher:  d.pool,
			Corrections: Corrections(cfg),
			Logger:      logger,
		},
		Interval: cfg.PollInterval,
		Logger:   logger,
	})

	d.tiler = regions.NewTiler(regions.Config{
		Regions:      Regions(cfg),
		IgnoreTitles: cfg.IgnoreTitles,
		Logger:       logger,
	})
	d.tiler.Attach(d.manager)

	d.icons = icons.NewWorker(icons.Config{
		Extractor: deps.Extractor,
		Overrides: loadOverrides(cfg, logger),
		Interval:  cfg.IconPollInterval,
		Logger:    logger,
	})
	d.icons.Attach(d.manager)

	d.server = ipc.NewServer(ipc.Config{
		SocketPath:   deps.SocketPath,
		Manager:      d.manager,
		Tiler:        d.tiler,
		Reload:       d.Reload,
		PendingIcons: d.icons.Pending,
		Logger:       logger,
	})

	if deps.Binder != nil {
		h := hotkeys.NewHandler(deps.Binder, d.tiler, logger)
		if err := h.Register(hotkeys.Bindings{Group: cfg.GroupHotkey, Fit: cfg.FitHotkeys}); err != nil {
			d.pool.Close()
			return nil, err
		}
	}
	return d, nil
}

func (d *Daemon) Manager() *tracker.Manager { return d.manager }

func (d *Daemon) Tiler() *regions.Tiler { return d.tiler }

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Run serves every component until ctx is cancelled. SIGHUP triggers Reload.
func (d *Daemon) Run(ctx context.Context) error {
	super := NewSupervisor("regionbar", d.logger)
	Add(super, d.manager)
	Add(super, d.icons)
	Add(super, d.server)
	Add(super, NewServiceFunc("reload-signal", d.watchSignals))
	if d.eventLoop != nil {
		Add(super, EventLoopService("event-loop", d.eventLoop))
	}

	d.logger.Info("regionbar daemon started", "regions", len(d.tiler.Regions()))
	err := super.Serve(ctx)
	d.pool.Close()
	d.logger.Info("regionbar daemon stopped")

	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (d *Daemon) watchSignals(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sigCh:
			d.logger.Info("received SIGHUP, reloading config")
			if err := d.Reload(); err != nil {
				d.logger.Error("config reload failed", "error", err)
			}
		}
	}
}

// Reload re-reads configuration and applies regions, ignored titles, icon
// overrides and log level. Intervals, pool size, corrections and hotkeys
// keep their startup values.
func (d *Daemon) Reload() error {
	if d.load == nil {
		return fmt.Errorf("no config loader")
	}
	cfg, err := d.load()
	if err != nil {
		return err
	}

	d.tiler.SetRegions(Regions(cfg), cfg.IgnoreTitles)
	d.icons.SetOverrides(loadOverrides(cfg, d.logger))
	if d.level != nil && !d.pinned {
		if lvl, err := logging.ParseLevel(cfg.LogLevel); err == nil {
			d.level.Set(lvl)
		}
	}

	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	d.logger.Info("config reloaded", "regions", len(cfg.Regions))
	return nil
}

// Corrections converts the configured geometry corrections.
func Corrections(cfg *config.Config) window.Corrections {
	return window.Corrections{
		BorderMargin:  cfg.BorderMargin,
		CompactHeader: cfg.CompactHeader,
		Border: window.Matcher{
			Include: cfg.BorderCorrection.Include,
			Exclude: cfg.BorderCorrection.Exclude,
		},
	}
}

// Regions converts the configured regions in order.
func Regions(cfg *config.Config) []regions.Region {
	out := make([]regions.Region, len(cfg.Regions))
	for i, r := range cfg.Regions {
		out[i] = regions.Region{
			Name:   r.Name,
			Bounds: platform.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height},
		}
	}
	return out
}

func loadOverrides(cfg *config.Config, logger *slog.Logger) *icons.Overrides {
	dir, err := cfg.ExpandedIconOverridesDir()
	if err == nil {
		var o *icons.Overrides
		if o, err = icons.LoadOverrides(dir); err == nil {
			logger.Debug("icon overrides loaded", "dir", dir, "count", o.Len())
			return o
		}
	}
	logger.Warn("icon overrides unavailable", "error", err)
	return nil
}
