package regions

import (
	"errors"
	"testing"

	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/1broseidon/regionbar/internal/platform/platformtest"
	"github.com/1broseidon/regionbar/internal/tracker"
	"github.com/1broseidon/regionbar/internal/window"
)

var testRegions = []Region{
	{Name: "left", Bounds: platform.Rect{X: 0, Y: 28, Width: 1280, Height: 1348}},
	{Name: "center", Bounds: platform.Rect{X: 1280, Y: 28, Width: 2560, Height: 1348}},
	{Name: "right", Bounds: platform.Rect{X: 3840, Y: 28, Width: 1280, Height: 1348}},
}

type fixture struct {
	backend *platformtest.Backend
	manager *tracker.Manager
	tiler   *Tiler
}

func newFixture(t *testing.T, windows ...platform.WindowInfo) *fixture {
	t.Helper()
	backend := platformtest.New()
	for _, w := range windows {
		backend.SetProcess(w.ID, platform.Process{PID: 2000 + int(w.ID), Executable: "/usr/bin/xterm"})
	}
	backend.SetWindows(windows...)

	m := tracker.NewManager(tracker.Config{
		Backend: backend,
		Window:  window.Options{Dispatcher: window.Inline{}, Corrections: window.DefaultCorrections()},
		SelfPID: 1000,
	})
	tl := NewTiler(Config{Regions: testRegions, IgnoreTitles: []string{"Program Manager", ""}})
	tl.Attach(m)
	if err := m.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	return &fixture{backend: backend, manager: m, tiler: tl}
}

func info(id platform.WindowID, title string, x, y, w, h int) platform.WindowInfo {
	return platform.WindowInfo{ID: id, Title: title, Bounds: platform.Rect{X: x, Y: y, Width: w, Height: h}}
}

func (f *fixture) window(t *testing.T, id platform.WindowID) *window.Window {
	t.Helper()
	w, ok := f.manager.Lookup(id)
	if !ok {
		t.Fatalf("window %d not tracked", id)
	}
	return w
}

func TestAssignRegion_ByCenter(t *testing.T) {
	regions := []Region{{Name: "a", Bounds: platform.Rect{X: 0, Y: 0, Width: 400, Height: 400}}}
	tl := NewTiler(Config{Regions: regions})
	w := window.New(info(1, "x", 100, 100, 200, 200), platform.Process{}, window.Options{})

	r, ok := tl.AssignRegion(w)
	if !ok || r.Name != "a" {
		t.Fatalf("expected window centered at (200,200) in region a, got %v %v", r, ok)
	}
}

func TestAssignRegion_EdgesAreHalfOpen(t *testing.T) {
	tl := NewTiler(Config{Regions: testRegions})
	// Center (1280, 500) sits on the left/center boundary.
	w := window.New(info(1, "x", 1180, 400, 200, 200), platform.Process{}, window.Options{})

	r, ok := tl.AssignRegion(w)
	if !ok || r.Name != "center" {
		t.Fatalf("expected boundary center to belong to center, got %q", r.Name)
	}
}

func TestAssignRegion_Outside(t *testing.T) {
	tl := NewTiler(Config{Regions: testRegions})
	w := window.New(info(1, "x", -500, -500, 100, 100), platform.Process{}, window.Options{})
	if _, ok := tl.AssignRegion(w); ok {
		t.Fatalf("window outside every region should not be assigned")
	}
}

func TestMembership_IgnoresTitles(t *testing.T) {
	f := newFixture(t,
		info(1, "editor", 100, 100, 400, 300),
		info(2, "Program Manager", 100, 100, 400, 300),
		info(3, "", 100, 100, 400, 300),
	)

	got := f.tiler.Windows("left")
	if len(got) != 1 || got[0].ID() != 1 {
		t.Fatalf("expected only window 1 in left, got %v", got)
	}
}

func TestMembership_DestroyedRemoved(t *testing.T) {
	f := newFixture(t, info(1, "editor", 100, 100, 400, 300))
	f.backend.SetWindows()
	if err := f.manager.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got := f.tiler.Windows("left"); len(got) != 0 {
		t.Fatalf("destroyed window still a member: %v", got)
	}
}

func TestFitAll(t *testing.T) {
	f := newFixture(t,
		info(1, "a", 100, 100, 400, 300),
		info(2, "b", 600, 200, 300, 300),
		info(3, "c", 2000, 200, 300, 300),
	)

	n, err := f.tiler.FitAll("left")
	if err != nil {
		t.Fatalf("FitAll() error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 windows fitted, got %d", n)
	}
	moves := f.backend.Moves()
	if len(moves) != 2 {
		t.Fatalf("expected 2 moves, got %d", len(moves))
	}
	for _, mv := range moves {
		if mv.Bounds != testRegions[0].Bounds {
			t.Errorf("window %d moved to %v, want %v", mv.ID, mv.Bounds, testRegions[0].Bounds)
		}
		if mv.ID == 3 {
			t.Errorf("window 3 is in center and should not be moved")
		}
	}
}

func TestFitAll_SkipsUnmanageable(t *testing.T) {
	f := newFixture(t,
		info(1, "a", 100, 100, 400, 300),
		info(2, "b", 600, 200, 300, 300),
	)
	f.backend.SetState(2, platform.WindowState{Valid: true, Visible: true, Minimized: true})

	n, err := f.tiler.FitAll("left")
	if err != nil {
		t.Fatalf("FitAll() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected minimized window to be skipped, fitted %d", n)
	}
}

func TestFitAll_UnknownRegion(t *testing.T) {
	f := newFixture(t)
	if _, err := f.tiler.FitAll("nowhere"); !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("expected ErrUnknownRegion, got %v", err)
	}
}

func TestGroupAll(t *testing.T) {
	f := newFixture(t,
		info(1, "a", 100, 100, 400, 300),
		info(2, "b", 2000, 200, 300, 300),
		info(3, "c", 4000, 200, 300, 300),
		info(4, "off", -900, -900, 100, 100),
	)

	if n := f.tiler.GroupAll(); n != 3 {
		t.Fatalf("expected 3 grouped windows, got %d", n)
	}
	want := map[platform.WindowID]platform.Rect{
		1: testRegions[0].Bounds,
		2: testRegions[1].Bounds,
		3: testRegions[2].Bounds,
	}
	for _, mv := range f.backend.Moves() {
		if want[mv.ID] != mv.Bounds {
			t.Errorf("window %d moved to %v, want %v", mv.ID, mv.Bounds, want[mv.ID])
		}
	}
}

func TestLastActive_FollowsForeground(t *testing.T) {
	f := newFixture(t,
		info(1, "a", 100, 100, 400, 300),
		info(2, "b", 2000, 200, 300, 300),
	)

	f.backend.SetForeground(1)
	if err := f.manager.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got := f.tiler.LastActive("left"); got == nil || got.ID() != 1 {
		t.Fatalf("expected window 1 last active in left, got %v", got)
	}

	// Focus moving to another region leaves left untouched.
	f.backend.SetForeground(2)
	if err := f.manager.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got := f.tiler.LastActive("left"); got == nil || got.ID() != 1 {
		t.Fatalf("left should still remember window 1, got %v", got)
	}
	if got := f.tiler.LastActive("center"); got == nil || got.ID() != 2 {
		t.Fatalf("expected window 2 last active in center, got %v", got)
	}
}

func TestLastActive_ClearedOnDestroy(t *testing.T) {
	f := newFixture(t, info(1, "a", 100, 100, 400, 300))
	f.backend.SetForeground(1)
	if err := f.manager.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	f.backend.SetWindows()
	if err := f.manager.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got := f.tiler.LastActive("left"); got != nil {
		t.Fatalf("expected last active cleared, got %v", got)
	}
}

func TestSelect(t *testing.T) {
	f := newFixture(t, info(1, "a", 100, 100, 400, 300))
	w := f.window(t, 1)

	if err := f.tiler.Select(w, "left"); err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got := f.backend.Activations(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected activation of window 1, got %v", got)
	}
	if f.tiler.LastActive("left") != w {
		t.Fatalf("expected Select to record last active")
	}
}

func TestCompactFit(t *testing.T) {
	f := newFixture(t, info(1, "a", 100, 100, 400, 300))
	w := f.window(t, 1)

	if err := f.tiler.CompactFit(w, "left"); err != nil {
		t.Fatalf("CompactFit() error: %v", err)
	}
	if !w.Compact() {
		t.Fatalf("expected compact mode on")
	}
	r := testRegions[0].Bounds
	want := platform.Rect{X: r.X, Y: r.Y - window.DefaultCompactHeader, Width: r.Width, Height: r.Height + window.DefaultCompactHeader}

	if got := f.backend.Moves()[0].Bounds; got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSetRegions_ClearsLastActive(t *testing.T) {
	f := newFixture(t, info(1, "a", 100, 100, 400, 300))
	f.backend.SetForeground(1)
	if err := f.manager.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	f.tiler.SetRegions(testRegions, nil)
	if got := f.tiler.LastActive("left"); got != nil {
		t.Fatalf("expected last active cleared after SetRegions")
	}
	if _, err := f.tiler.Region("left"); err != nil {
		t.Fatalf("Region(left) error: %v", err)
	}
}

func TestAttach_SeedsExistingWindows(t *testing.T) {
	backend := platformtest.New()
	backend.SetProcess(1, platform.Process{PID: 5, Executable: "/usr/bin/xterm"})
	backend.SetWindows(info(1, "a", 100, 100, 400, 300))
	m := tracker.NewManager(tracker.Config{Backend: backend, SelfPID: 1000})
	if err := m.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	tl := NewTiler(Config{Regions: testRegions})
	detach := tl.Attach(m)
	defer detach()

	if got := tl.Windows("left"); len(got) != 1 {
		t.Fatalf("expected seeded membership, got %v", got)
	}
}

func TestOverlappingRegions_FirstConfiguredWins(t *testing.T) {
	f := newFixture(t, info(1, "editor", 100, 100, 400, 300))
	wide := Region{Name: "wide", Bounds: platform.Rect{X: 0, Y: 0, Width: 2000, Height: 1000}}
	inner := Region{Name: "inner", Bounds: platform.Rect{X: 200, Y: 200, Width: 400, Height: 400}}
	f.tiler.SetRegions([]Region{wide, inner}, nil)
	w := f.window(t, 1)

	// Center (300,250) lies in both regions.
	if r, ok := f.tiler.AssignRegion(w); !ok || r.Name != "wide" {
		t.Fatalf("expected first configured region wide, got %q %v", r.Name, ok)
	}

	layout := f.tiler.Layout()
	if len(layout) != 2 || len(layout[0].Windows) != 1 || len(layout[1].Windows) != 0 {
		t.Fatalf("expected window counted once under wide, got %+v", layout)
	}

	if n, err := f.tiler.FitAll("inner"); err != nil || n != 0 {
		t.Fatalf("FitAll(inner) = %d, %v; want 0", n, err)
	}
	if n, err := f.tiler.FitAll("wide"); err != nil || n != 1 {
		t.Fatalf("FitAll(wide) = %d, %v; want 1", n, err)
	}
	if n := f.tiler.GroupAll(); n != 1 {
		t.Fatalf("GroupAll() = %d, want 1", n)
	}

	moves := f.backend.Moves()
	if len(moves) != 2 {
		t.Fatalf("expected one resize per call, got %v", moves)
	}
	for _, mv := range moves {
		if mv.ID != 1 || mv.Bounds != wide.Bounds {
			t.Fatalf("expected resize of window 1 to %v, got %+v", wide.Bounds, mv)
		}
	}
}
