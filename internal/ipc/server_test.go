package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/1broseidon/regionbar/internal/platform/platformtest"
	"github.com/1broseidon/regionbar/internal/regions"
	"github.com/1broseidon/regionbar/internal/tracker"
	"github.com/1broseidon/regionbar/internal/window"
)

type testEnv struct {
	backend *platformtest.Backend
	manager *tracker.Manager
	tiler   *regions.Tiler
	server  *Server
	reloads int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := platformtest.New()
	windows := []platform.WindowInfo{
		{ID: 1, Title: "left editor", Bounds: platform.Rect{X: 100, Y: 100, Width: 400, Height: 300}},
		{ID: 2, Title: "right term", Bounds: platform.Rect{X: 1100, Y: 100, Width: 400, Height: 300}},
		{ID: 3, Title: "floating", Bounds: platform.Rect{X: -900, Y: -900, Width: 100, Height: 100}},
	}
	for _, w := range windows {
		backend.SetProcess(w.ID, platform.Process{PID: int(w.ID) + 100, Executable: "/usr/bin/xterm"})
	}
	backend.SetWindows(windows...)
	backend.SetForeground(2)

	m := tracker.NewManager(tracker.Config{
		Backend: backend,
		Window:  window.Options{Dispatcher: window.Inline{}, Corrections: window.DefaultCorrections()},
		SelfPID: 1,
	})
	tl := regions.NewTiler(regions.Config{Regions: []regions.Region{
		{Name: "left", Bounds: platform.Rect{X: 0, Y: 0, Width: 1000, Height: 1000}},
		{Name: "right", Bounds: platform.Rect{X: 1000, Y: 0, Width: 1000, Height: 1000}},
	}})
	tl.Attach(m)
	if err := m.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	env := &testEnv{backend: backend, manager: m, tiler: tl}
	env.server = NewServer(Config{
		Manager:      m,
		Tiler:        tl,
		Reload:       func() error { env.reloads++; return nil },
		PendingIcons: func() int { return 4 },
	})
	return env
}

func (e *testEnv) do(t *testing.T, cmd CommandType, payload interface{}) *Response {
	t.Helper()
	req, err := NewRequest(cmd, payload)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return e.server.handleCommand(req)
}

func decode(t *testing.T, resp *Response, out interface{}) {
	t.Helper()
	if resp.Status != "OK" {
		t.Fatalf("expected OK, got %s: %s", resp.Status, resp.Error)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHandleGetStatus(t *testing.T) {
	env := newTestEnv(t)
	var status StatusData
	decode(t, env.do(t, CommandGetStatus, nil), &status)

	if status.WindowCount != 3 || status.RegionCount != 2 {
		t.Fatalf("unexpected counts %+v", status)
	}
	if status.Foreground != 2 || status.Cycles != 1 || status.PendingIcons != 4 || !status.DaemonRunning {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestHandleListWindows(t *testing.T) {
	env := newTestEnv(t)
	var data WindowsData
	decode(t, env.do(t, CommandListWindows, nil), &data)

	if len(data.Windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(data.Windows))
	}
	byID := map[uint32]WindowData{}
	for _, w := range data.Windows {
		byID[w.ID] = w
	}
	if byID[1].Region != "left" || byID[2].Region != "right" || byID[3].Region != "" {
		t.Fatalf("unexpected region assignment %+v", byID)
	}
	if byID[1].PID != 101 || byID[1].Executable != "/usr/bin/xterm" || !byID[1].Manageable {
		t.Fatalf("unexpected window data %+v", byID[1])
	}
}

func TestHandleListRegions(t *testing.T) {
	env := newTestEnv(t)
	var data RegionsData
	decode(t, env.do(t, CommandListRegions, nil), &data)

	if len(data.Regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(data.Regions))
	}
	right := data.Regions[1]
	if right.Name != "right" || len(right.Windows) != 1 || right.Windows[0].ID != 2 {
		t.Fatalf("unexpected right region %+v", right)
	}
	if right.LastActive != 2 {
		t.Fatalf("expected foreground window recorded as last active, got %d", right.LastActive)
	}
}

func TestHandleActivate(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, CommandActivate, ActivatePayload{WindowID: 1})
	if resp.Status != "OK" {
		t.Fatalf("expected OK, got %s", resp.Error)
	}
	if got := env.backend.Activations(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected activation of window 1, got %v", got)
	}
	if last := env.tiler.LastActive("left"); last == nil || last.ID() != 1 {
		t.Fatalf("expected window 1 recorded as last active")
	}
}

func TestHandleActivate_UnknownWindow(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, CommandActivate, ActivatePayload{WindowID: 99})
	if resp.Status != "ERROR" || !strings.Contains(resp.Error, "not tracked") {
		t.Fatalf("expected unknown window error, got %+v", resp)
	}
}

func TestHandleFitRegion(t *testing.T) {
	env := newTestEnv(t)
	var data CountData
	decode(t, env.do(t, CommandFitRegion, FitRegionPayload{Region: "left"}), &data)
	if data.Count != 1 {
		t.Fatalf("expected 1 window fitted, got %d", data.Count)
	}
	moves := env.backend.Moves()
	if len(moves) != 1 || moves[0].Bounds != (platform.Rect{Width: 1000, Height: 1000}) {
		t.Fatalf("unexpected moves %v", moves)
	}

	resp := env.do(t, CommandFitRegion, FitRegionPayload{Region: "top"})
	if resp.Status != "ERROR" {
		t.Fatalf("expected error for unknown region")
	}
}

func TestHandleGroup(t *testing.T) {
	env := newTestEnv(t)
	var data CountData
	decode(t, env.do(t, CommandGroup, nil), &data)
	if data.Count != 2 {
		t.Fatalf("expected 2 grouped windows, got %d", data.Count)
	}
}

func TestHandleToggleCompact(t *testing.T) {
	env := newTestEnv(t)
	var data ToggleCompactData
	decode(t, env.do(t, CommandToggleCompact, ToggleCompactPayload{WindowID: 2}), &data)
	if !data.Compact || data.Region != "right" {
		t.Fatalf("unexpected toggle result %+v", data)
	}
	got := env.backend.Moves()[0].Bounds
	want := platform.Rect{X: 1000, Y: -window.DefaultCompactHeader, Width: 1000, Height: 1000 + window.DefaultCompactHeader}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	resp := env.do(t, CommandToggleCompact, ToggleCompactPayload{WindowID: 3})
	if resp.Status != "ERROR" {
		t.Fatalf("expected error for window outside every region")
	}
}

func TestHandleReload(t *testing.T) {
	env := newTestEnv(t)
	if resp := env.do(t, CommandReload, nil); resp.Status != "OK" {
		t.Fatalf("expected OK, got %s", resp.Error)
	}
	if env.reloads != 1 {
		t.Fatalf("expected reload hook to run once, ran %d", env.reloads)
	}

	env.server.reload = func() error { return errors.New("bad yaml") }
	resp := env.do(t, CommandReload, nil)
	if resp.Status != "ERROR" || !strings.Contains(resp.Error, "bad yaml") {
		t.Fatalf("expected reload error, got %+v", resp)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, CommandType("NOPE"), nil)
	if resp.Status != "ERROR" {
		t.Fatalf("expected error for unknown command")
	}
}

func TestClientServerRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.server.socketPath = filepath.Join(t.TempDir(), "rb.sock")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	client := NewClientWithSocket(env.server.socketPath)
	var status *StatusData
	var err error
	for i := 0; i < 50; i++ {
		if status, err = client.GetStatus(); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.WindowCount != 3 {
		t.Fatalf("unexpected status %+v", status)
	}

	n, err := client.FitRegion("right")
	if err != nil || n != 1 {
		t.Fatalf("FitRegion = %d, %v", n, err)
	}
	if _, err := client.FitRegion("missing"); err == nil || !strings.Contains(err.Error(), "daemon error") {
		t.Fatalf("expected daemon error, got %v", err)
	}
	regionsData, err := client.ListRegions()
	if err != nil || len(regionsData.Regions) != 2 {
		t.Fatalf("ListRegions = %+v, %v", regionsData, err)
	}
}

func TestParseRequest_Invalid(t *testing.T) {
	if _, err := ParseRequest([]byte("{not json")); err == nil {
		t.Fatalf("expected parse error")
	}
}
