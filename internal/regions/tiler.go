// Package regions groups tracked windows into fixed screen regions by their
// center point and snaps them to fill those regions on request.
package regions

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/1broseidon/regionbar/internal/tracker"
	"github.com/1broseidon/regionbar/internal/window"
)

// ErrUnknownRegion is returned when a region name is not configured.
var ErrUnknownRegion = errors.New("unknown region")

// Region is a named rectangle on the virtual screen.
type Region struct {
	Name   string
	Bounds platform.Rect
}

// Contains reports whether the window's center lies inside the region.
func (r Region) Contains(w *window.Window) bool {
	x, y := w.Center()
	return r.Bounds.Contains(x, y)
}

// Group is one region and its manageable windows.
type Group struct {
	Region     Region
	Windows    []*window.Window
	LastActive *window.Window
}

// Config holds configuration for the tiler.
type Config struct {
	Regions      []Region
	IgnoreTitles []string
	Logger       *slog.Logger
}

// Tiler tracks which windows belong to which region. Membership follows the
// tracker's created/destroyed events; region assignment is recomputed from
// current geometry on every call.
type Tiler struct {
	logger *slog.Logger

	mu         sync.RWMutex
	regions    []Region
	ignore     map[string]struct{}
	members    map[platform.WindowID]*window.Window
	lastActive map[string]*window.Window
}

// NewTiler creates a tiler with no members.
func NewTiler(cfg Config) *Tiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tiler{
		logger:     logger,
		members:    make(map[platform.WindowID]*window.Window),
		lastActive: make(map[string]*window.Window),
	}
	t.SetRegions(cfg.Regions, cfg.IgnoreTitles)
	return t
}

// SetRegions replaces the region list and ignored titles. Last-active
// back-references are cleared.
func (t *Tiler) SetRegions(regions []Region, ignoreTitles []string) {
	ignore := make(map[string]struct{}, len(ignoreTitles))
	for _, title := range ignoreTitles {
		ignore[title] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.regions = append([]Region(nil), regions...)
	t.ignore = ignore
	t.lastActive = make(map[string]*window.Window)
}

// Attach subscribes the tiler to m and seeds membership from the windows m
// already tracks. The returned function unsubscribes.
func (t *Tiler) Attach(m *tracker.Manager) (detach func()) {
	subs := []tracker.Subscription{
		m.OnWindowCreated(t.HandleCreated),
		m.OnWindowDestroyed(t.HandleDestroyed),
		m.OnForegroundWindowChanged(t.HandleForeground),
	}
	for _, w := range m.Windows() {
		t.HandleCreated(w)
	}
	return func() {
		for _, sub := range subs {
			m.Unsubscribe(sub)
		}
	}
}

// HandleCreated adds w to the member set unless its title is ignored.
func (t *Tiler) HandleCreated(w *window.Window) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, skip := t.ignore[w.Title()]; skip {
		return
	}
	t.members[w.ID()] = w
}

// HandleDestroyed drops w and any last-active reference to it.
func (t *Tiler) HandleDestroyed(w *window.Window) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.members, w.ID())
	for name, last := range t.lastActive {
		if last == w {
			delete(t.lastActive, name)
		}
	}
}

// HandleForeground records w as last active in its region. A nil window
// (nothing tracked in the foreground) leaves every region unchanged.
func (t *Tiler) HandleForeground(w *window.Window) {
	if w == nil {
		return
	}
	region, ok := t.AssignRegion(w)
	if !ok {
		return
	}
	t.mu.Lock()
	t.lastActive[region.Name] = w
	t.mu.Unlock()
}

// Regions returns the configured regions in order.
func (t *Tiler) Regions() []Region {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Region(nil), t.regions...)
}

// Region looks up a region by name.
func (t *Tiler) Region(name string) (Region, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.regions {
		if r.Name == name {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// AssignRegion returns the first region containing the window's center.
func (t *Tiler) AssignRegion(w *window.Window) (Region, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return assign(t.regions, w)
}

func assign(regions []Region, w *window.Window) (Region, bool) {
	x, y := w.Center()
	for _, r := range regions {
		if r.Bounds.Contains(x, y) {
			return r, true
		}
	}
	return Region{}, false
}

// LastActive returns the window most recently focused in region, or nil.
func (t *Tiler) LastActive(region string) *window.Window {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastActive[region]
}

// Windows returns the manageable members assigned to region, ordered by handle.
func (t *Tiler) Windows(region string) []*window.Window {
	for _, g := range t.Layout() {
		if g.Region.Name == region {
			return g.Windows
		}
	}
	return nil
}

// Layout returns every region with its manageable members.
func (t *Tiler) Layout() []Group {
	t.mu.RLock()
	regions := append([]Region(nil), t.regions...)
	members := t.sortedMembers()
	groups := make([]Group, len(regions))
	for i, r := range regions {
		groups[i] = Group{Region: r, LastActive: t.lastActive[r.Name]}
	}
	t.mu.RUnlock()

	// Liveness queries hit the OS; do them outside the lock.
	for _, w := range members {
		if !w.IsManageable() {
			continue
		}
		x, y := w.Center()
		for i := range groups {
			if groups[i].Region.Bounds.Contains(x, y) {
				groups[i].Windows = append(groups[i].Windows, w)
				break
			}
		}
	}
	return groups
}

func (t *Tiler) sortedMembers() []*window.Window {
	out := make([]*window.Window, 0, len(t.members))
	for _, w := range t.members {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// FitAll resizes every manageable window in the named region to fill it and
// returns how many resize commands were issued.
func (t *Tiler) FitAll(name string) (int, error) {
	region, err := t.Region(name)
	if err != nil {
		return 0, err
	}
	windows := t.Windows(name)
	for _, w := range windows {
		t.FitOne(w, region)
	}
	t.logger.Info("fit region", "region", name, "windows", len(windows))
	return len(windows), nil
}

// FitOne resizes a single window to the region's bounds.
func (t *Tiler) FitOne(w *window.Window, region Region) {
	w.Resize(region.Bounds)
}

// GroupAll snaps every manageable member into the region containing its
// center and returns how many windows were moved.
func (t *Tiler) GroupAll() int {
	n := 0
	for _, g := range t.Layout() {
		for _, w := range g.Windows {
			t.FitOne(w, g.Region)
			n++
		}
	}
	t.logger.Info("grouped windows", "windows", n)
	return n
}

// Select activates w and records it as last active in region.
func (t *Tiler) Select(w *window.Window, name string) error {
	if _, err := t.Region(name); err != nil {
		return err
	}
	w.Activate()
	t.mu.Lock()
	t.lastActive[name] = w
	t.mu.Unlock()
	return nil
}

// CompactFit toggles compact mode on w and refits it to region.
func (t *Tiler) CompactFit(w *window.Window, name string) error {
	region, err := t.Region(name)
	if err != nil {
		return err
	}
	w.ToggleCompact()
	t.FitOne(w, region)
	return nil
}
