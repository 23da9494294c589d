package window

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/1broseidon/regionbar/internal/platform"
)

// Options carries the collaborators shared by every tracked window.
type Options struct {
	Controller  platform.Controller
	Dispatcher  Dispatcher
	Corrections Corrections
	Logger      *slog.Logger
}

// Window is the in-memory view of one OS window. Title and bounds are
// written by the tracker; every other caller only reads them.
type Window struct {
	id      platform.WindowID
	process platform.Process
	border  bool

	ctl      platform.Controller
	dispatch Dispatcher
	corr     Corrections
	logger   *slog.Logger

	mu      sync.RWMutex
	title   string
	bounds  platform.Rect
	compact bool
	icon    image.Image
}

// New builds a Window from its first observation. Border correction is
// decided here from the executable and never re-evaluated.
func New(info platform.WindowInfo, proc platform.Process, opts Options) *Window {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dispatch := opts.Dispatcher
	if dispatch == nil {
		dispatch = Inline{Logger: logger}
	}

	return &Window{
		id:       info.ID,
		process:  proc,
		border:   opts.Corrections.Border.Match(proc.Executable),
		ctl:      opts.Controller,
		dispatch: dispatch,
		corr:     opts.Corrections,
		logger:   logger,
		title:    info.Title,
		bounds:   info.Bounds,
	}
}

func (w *Window) ID() platform.WindowID { return w.id }

func (w *Window) Process() platform.Process { return w.process }

// BorderCorrected reports whether resizes compensate for an invisible frame.
func (w *Window) BorderCorrected() bool { return w.border }

func (w *Window) Title() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.title
}

// SetTitle records a newly observed title.
func (w *Window) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

// Bounds returns the rectangle as of the last successful read.
func (w *Window) Bounds() platform.Rect {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.bounds
}

// SetBounds records a newly observed rectangle.
func (w *Window) SetBounds(r platform.Rect) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bounds = r
}

// Center returns the center of the cached bounds.
func (w *Window) Center() (x, y int) {
	return w.Bounds().Center()
}

func (w *Window) Compact() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.compact
}

// ToggleCompact flips compact mode. Geometry changes on the next Resize.
func (w *Window) ToggleCompact() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.compact = !w.compact
	return w.compact
}

// Icon returns the icon set by the icon pipeline, or nil.
func (w *Window) Icon() image.Image {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.icon
}

func (w *Window) SetIcon(img image.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.icon = img
}

// State queries the live OS state. A window that cannot be queried reports
// the zero state (invalid).
func (w *Window) State() platform.WindowState {
	if w.ctl == nil {
		return platform.WindowState{}
	}
	st, err := w.ctl.WindowState(w.id)
	if err != nil {
		return platform.WindowState{}
	}
	return st
}

// IsManageable reports whether the window takes part in tiling. It is
// recomputed from live state on every call.
func (w *Window) IsManageable() bool {
	st := w.State()
	if !st.Valid || !st.Visible || st.Minimized {
		return false
	}
	b := w.Bounds()
	return b.Width > 1 && b.Height > 1
}

// Activate asks the OS to focus the window. It returns immediately.
func (w *Window) Activate() {
	if w.ctl == nil {
		return
	}
	w.logger.Debug("activating window", "window_id", w.id, "title", w.Title())
	w.dispatch.Dispatch("activate", w.id, func() error {
		return w.ctl.Activate(w.id)
	})
}

// Corrected returns target with this window's border and compact
// corrections applied.
func (w *Window) Corrected(target platform.Rect) platform.Rect {
	return w.corr.Apply(target, w.border, w.Compact())
}

// Resize asks the OS to move the window to target after corrections. It
// returns immediately.
func (w *Window) Resize(target platform.Rect) {
	if w.ctl == nil {
		return
	}
	bounds := w.Corrected(target)
	w.logger.Debug("resizing window", "window_id", w.id, "target", target.String(), "bounds", bounds.String())
	w.dispatch.Dispatch("resize", w.id, func() error {
		return w.ctl.MoveResize(w.id, bounds)
	})
}

func (w *Window) String() string {
	return fmt.Sprintf("%s (%d) (%s)", w.Title(), w.id, w.Bounds())
}
