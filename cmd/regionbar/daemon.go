package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/regionbar/internal/config"
	"github.com/1broseidon/regionbar/internal/daemon"
	"github.com/1broseidon/regionbar/internal/hotkeys"
	"github.com/1broseidon/regionbar/internal/logging"
	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/1broseidon/regionbar/internal/runtimepath"
)

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "regionbar daemon [--debug] [--path PATH] [--display DISPLAY]", "Track windows and serve region commands until interrupted. SIGHUP reloads the configuration.")
	debug := fs.Bool("debug", false, "Log at debug level")
	path := fs.String("path", "", "Config file path (default: ~/.config/regionbar/config.yaml)")
	display := fs.String("display", "", "X display to connect to (default: $DISPLAY)")
	if code, ok := parseArgs(fs, args, 0, 0); !ok {
		return code
	}

	load := func() (*config.Config, error) {
		res, err := loadConfig(*path)
		if err != nil {
			return nil, err
		}
		return res.Config, nil
	}

	cfg, err := load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if *debug {
		level = slog.LevelDebug
	}
	logger, levelVar := logging.New(os.Stderr, level)
	slog.SetDefault(logger)

	backend, err := platform.NewLinuxBackendFromDisplay(*display)
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer backend.Disconnect()
	logger.Info("connected to display", "window_manager", backend.WindowManagerName())

	var binder hotkeys.Binder
	if b, err := hotkeys.NewX11Binder(backend); err != nil {
		logger.Warn("global hotkeys disabled", "error", err)
	} else {
		binder = b
	}

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		logger.Error("failed to resolve IPC socket path", "error", err)
		return 1
	}

	d, err := daemon.New(cfg, daemon.Deps{
		Backend:    backend,
		Extractor:  backend,
		Binder:     binder,
		EventLoop:  backend,
		SocketPath: socketPath,
		Load:       load,
		Logger:     logger,
		Level:      levelVar,
		// --debug outlives SIGHUP reloads.
		LevelPinned: *debug,
	})
	if err != nil {
		logger.Error("failed to start daemon", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited", "error", err)
		return 1
	}
	return 0
}
