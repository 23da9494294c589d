package hotkeys

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Actions are the region operations hotkeys trigger.
type Actions interface {
	GroupAll() int
	FitAll(region string) (int, error)
}

// Binder attaches a callback to a global key sequence.
type Binder interface {
	Bind(keySequence string, callback func()) error
}

// Bindings maps configured key sequences to actions. Empty sequences are
// not bound.
type Bindings struct {
	Group string
	// Fit maps region name to key sequence.
	Fit map[string]string
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	binder  Binder
	actions Actions
	logger  *slog.Logger
}

// NewHandler creates a handler that binds through b.
func NewHandler(b Binder, actions Actions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{binder: b, actions: actions, logger: logger}
}

// NewX11Binder returns a Binder that grabs keys on the backend's root window.
func NewX11Binder(backend platform.Backend) (Binder, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, fmt.Errorf("global hotkeys require an X11 backend")
	}
	return newX11Binder(accessor.XUtil(), accessor.RootWindow()), nil
}

// NewX11Handler creates a handler that grabs keys on the backend's root window.
func NewX11Handler(backend platform.Backend, actions Actions, logger *slog.Logger) (*Handler, error) {
	b, err := NewX11Binder(backend)
	if err != nil {
		return nil, err
	}
	return NewHandler(b, actions, logger), nil
}

// Register binds the group hotkey and every fit hotkey.
func (h *Handler) Register(b Bindings) error {
	if b.Group != "" {
		if err := h.binder.Bind(b.Group, h.group); err != nil {
			return fmt.Errorf("failed to register group hotkey %q: %w", b.Group, err)
		}
		h.logger.Info("registered hotkey", "action", "group", "keys", b.Group)
	}

	regions := make([]string, 0, len(b.Fit))
	for region := range b.Fit {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	for _, region := range regions {
		seq := b.Fit[region]
		if seq == "" {
			continue
		}
		if err := h.binder.Bind(seq, h.fit(region)); err != nil {
			return fmt.Errorf("failed to register fit hotkey %q for region %s: %w", seq, region, err)
		}
		h.logger.Info("registered hotkey", "action", "fit", "region", region, "keys", seq)
	}
	return nil
}

func (h *Handler) group() {
	n := h.actions.GroupAll()
	h.logger.Debug("group hotkey triggered", "windows", n)
}

func (h *Handler) fit(region string) func() {
	return func() {
		n, err := h.actions.FitAll(region)
		if err != nil {
			h.logger.Warn("fit hotkey failed", "region", region, "error", err)
			return
		}
		h.logger.Debug("fit hotkey triggered", "region", region, "windows", n)
	}
}

type x11Binder struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

var ignoreModsOnce sync.Once

func newX11Binder(xu *xgbutil.XUtil, root xproto.Window) *x11Binder {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})
	return &x11Binder{xu: xu, root: root}
}

func (b *x11Binder) Bind(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(b.xu, b.root, keySequence, true)
}

// configureIgnoreMods makes grabs fire regardless of CapsLock, NumLock and
// ScrollLock state.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}
	xevent.IgnoreMods = lockMaskCombinations(base)
}

// lockMaskCombinations returns 0 plus the OR of every non-empty subset of base.
func lockMaskCombinations(base []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	out := make([]uint16, 0, len(unique))
	for mask := range unique {
		out = append(out, mask)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
