package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/regionbar/internal/ipc"
	"github.com/1broseidon/regionbar/internal/platform"
)

type fakeClient struct {
	regions []ipc.RegionData
	fits    []string
	groups  int
	err     error
}

func (c *fakeClient) ListRegions() (*ipc.RegionsData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &ipc.RegionsData{Regions: c.regions}, nil
}

func (c *fakeClient) FitRegion(region string) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.fits = append(c.fits, region)
	return 2, nil
}

func (c *fakeClient) Group() (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.groups++
	return 4, nil
}

func testRegions() []ipc.RegionData {
	return []ipc.RegionData{
		{Name: "left", Bounds: platform.Rect{X: 0, Y: 28, Width: 1280, Height: 1412}},
		{
			Name:       "center",
			Bounds:     platform.Rect{X: 1280, Y: 28, Width: 2560, Height: 1412},
			Windows:    []ipc.WindowData{{ID: 1, Title: "editor"}, {ID: 2, Title: "browser"}},
			LastActive: 2,
		},
		{Name: "right", Bounds: platform.Rect{X: 3840, Y: 28, Width: 1280, Height: 1412}},
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func loaded(t *testing.T, c *fakeClient) model {
	t.Helper()
	m := newModel(c, time.Millisecond)
	m, _ = update(t, m, m.fetch()())
	return m
}

func TestModel_LoadsRegions(t *testing.T) {
	m := loaded(t, &fakeClient{regions: testRegions()})
	if !m.connected {
		t.Fatalf("expected connected after successful fetch")
	}
	if len(m.regions) != 3 {
		t.Fatalf("expected 3 regions, got %d", len(m.regions))
	}

	view := m.View()
	for _, want := range []string{"left", "center", "right", "editor", "browser", "daemon connected"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_DaemonDown(t *testing.T) {
	m := loaded(t, &fakeClient{err: errors.New("dial unix: no such file")})
	if m.connected {
		t.Fatalf("expected disconnected")
	}
	if !strings.Contains(m.View(), "daemon not running") {
		t.Fatalf("expected not running status in view")
	}
}

func TestModel_Navigation(t *testing.T) {
	m := loaded(t, &fakeClient{regions: testRegions()})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.selected != 0 {
		t.Fatalf("left at first region should stay, got %d", m.selected)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, keyRune('l'))
	if m.selected != 2 {
		t.Fatalf("expected selection 2, got %d", m.selected)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.selected != 2 {
		t.Fatalf("right at last region should stay, got %d", m.selected)
	}
	m, _ = update(t, m, keyRune('h'))
	if m.selected != 1 {
		t.Fatalf("expected selection 1, got %d", m.selected)
	}
}

func TestModel_FitSelectedRegion(t *testing.T) {
	c := &fakeClient{regions: testRegions()}
	m := loaded(t, c)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})

	m, cmd := update(t, m, keyRune('f'))
	if cmd == nil {
		t.Fatalf("expected fit command")
	}
	m, refresh := update(t, m, cmd())
	if len(c.fits) != 1 || c.fits[0] != "center" {
		t.Fatalf("expected fit of center, got %v", c.fits)
	}
	if !strings.Contains(m.message, "fitted 2") {
		t.Fatalf("unexpected message %q", m.message)
	}
	if refresh == nil {
		t.Fatalf("expected refresh after action")
	}
}

func TestModel_Group(t *testing.T) {
	c := &fakeClient{regions: testRegions()}
	m := loaded(t, c)

	m, cmd := update(t, m, keyRune('g'))
	if cmd == nil {
		t.Fatalf("expected group command")
	}
	m, _ = update(t, m, cmd())
	if c.groups != 1 || !strings.Contains(m.message, "grouped 4") {
		t.Fatalf("unexpected group outcome: calls=%d message=%q", c.groups, m.message)
	}
}

func TestModel_ActionError(t *testing.T) {
	c := &fakeClient{regions: testRegions()}
	m := loaded(t, c)
	c.err = errors.New("unknown region")

	m, cmd := update(t, m, keyRune('f'))
	m, refresh := update(t, m, cmd())
	if m.lastErr == nil || refresh != nil {
		t.Fatalf("expected error and no refresh, got err=%v", m.lastErr)
	}
	if !strings.Contains(m.View(), "unknown region") {
		t.Fatalf("expected error in view")
	}
}

func TestModel_SelectionClampedOnShrink(t *testing.T) {
	c := &fakeClient{regions: testRegions()}
	m := loaded(t, c)
	m.selected = 2

	c.regions = c.regions[:1]
	m, _ = update(t, m, m.fetch()())
	if m.selected != 0 {
		t.Fatalf("expected selection clamped to 0, got %d", m.selected)
	}
}

func TestModel_Quit(t *testing.T) {
	m := loaded(t, &fakeClient{})
	_, cmd := update(t, m, keyRune('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := truncate("a very long window title", 8); got != "a very …" {
		t.Fatalf("unexpected %q", got)
	}
}
