package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if got := strings.Join(cfg.RegionNames(), ","); got != "left,center,right" {
		t.Fatalf("unexpected default regions %q", got)
	}
	left := cfg.Regions[0]
	if left.X != 64 || left.Y != 28 || left.Width != 1216 || left.Height != 1412 {
		t.Fatalf("unexpected left region %+v", left)
	}
	if cfg.Regions[2].X != 3840 {
		t.Fatalf("expected right region at 3840, got %d", cfg.Regions[2].X)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.PollInterval != DefaultPollInterval {
		t.Fatalf("expected default poll interval, got %v", res.Config.PollInterval)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.GroupHotkey != DefaultGroupHotkey {
		t.Fatalf("expected group_hotkey %q, got %q", DefaultGroupHotkey, res.Config.GroupHotkey)
	}
}

func TestLoadFromPath_Overrides(t *testing.T) {
	data := strings.Join([]string{
		"poll_interval: 500ms",
		"icon_poll_interval: 1s",
		"border_margin: 6",
		"border_correction:",
		"  include: [\"*.appimage\"]",
		"ignore_titles: []",
		"regions:",
		"  - {name: main, x: 0, y: 0, width: 1920, height: 1080}",
		"fit_hotkeys:",
		"  main: Mod4-f",
		"log_level: debug",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.PollInterval != 500*time.Millisecond || cfg.IconPollInterval != time.Second {
		t.Fatalf("unexpected intervals %v %v", cfg.PollInterval, cfg.IconPollInterval)
	}
	if cfg.BorderMargin != 6 || cfg.CompactHeader != DefaultCompactHeader {
		t.Fatalf("unexpected margins %d %d", cfg.BorderMargin, cfg.CompactHeader)
	}
	if len(cfg.BorderCorrection.Include) != 1 || len(cfg.BorderCorrection.Exclude) != 0 {
		t.Fatalf("unexpected border correction %+v", cfg.BorderCorrection)
	}
	if len(cfg.IgnoreTitles) != 0 {
		t.Fatalf("explicit empty ignore_titles should clear defaults, got %v", cfg.IgnoreTitles)
	}
	if len(cfg.Regions) != 1 || cfg.Regions[0].Width != 1920 {
		t.Fatalf("unexpected regions %+v", cfg.Regions)
	}
	if cfg.FitHotkeys["main"] != "Mod4-f" {
		t.Fatalf("unexpected fit hotkeys %v", cfg.FitHotkeys)
	}
	if src := res.Source("log_level"); src.Kind != SourceFile || src.Line != 11 {
		t.Fatalf("expected log_level from file line 11, got %+v", src)
	}
	if src := res.Source("command_workers"); src.Kind != SourceDefault {
		t.Fatalf("expected command_workers from defaults, got %+v", src)
	}
}

func TestLoadFromPath_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "poll_intervall: 1s\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadFromPath_ValidationErrorHasLine(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "command_workers: 2\ncommand_queue: 0\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "command_queue" || verr.Source.Line != 2 {
		t.Fatalf("unexpected error context %+v", verr)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected line in message, got %q", err.Error())
	}
}

func TestLoadFromPath_Include(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "regions.yaml", strings.Join([]string{
		"regions:",
		"  - {name: a, x: 0, y: 0, width: 100, height: 100}",
		"  - {name: b, x: 100, y: 0, width: 100, height: 100}",
		"log_level: warn",
		"",
	}, "\n"))
	path := writeConfig(t, dir, "config.yaml", "include: regions.yaml\nlog_level: error\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.Join(res.Config.RegionNames(), ","); got != "a,b" {
		t.Fatalf("expected included regions, got %q", got)
	}
	if res.Config.LogLevel != "error" {
		t.Fatalf("including file should win, got %q", res.Config.LogLevel)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"zero poll", func(c *Config) { c.PollInterval = 0 }, "poll_interval"},
		{"negative icon poll", func(c *Config) { c.IconPollInterval = -time.Second }, "icon_poll_interval"},
		{"no workers", func(c *Config) { c.CommandWorkers = 0 }, "command_workers"},
		{"negative margin", func(c *Config) { c.BorderMargin = -1 }, "border_margin"},
		{"negative header", func(c *Config) { c.CompactHeader = -1 }, "compact_header"},
		{"bad glob", func(c *Config) { c.BorderCorrection.Include = []string{"[chrome"} }, "border_correction.include"},
		{"empty pattern", func(c *Config) { c.BorderCorrection.Exclude = []string{" "} }, "border_correction.exclude"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"no regions", func(c *Config) { c.Regions = nil }, "regions"},
		{"unnamed region", func(c *Config) { c.Regions[1].Name = "" }, "regions"},
		{"duplicate region", func(c *Config) { c.Regions[1].Name = "left" }, "regions"},
		{"fit unknown region", func(c *Config) { c.FitHotkeys["top"] = "Mod4-t" }, "fit_hotkeys.top"},
		{"fit empty key", func(c *Config) { c.FitHotkeys["left"] = "" }, "fit_hotkeys.left"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestValidate_OverlappingRegionsAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Regions = []Region{
		{Name: "a", Width: 100, Height: 100},
		{Name: "b", X: 50, Width: 100, Height: 100},
		{Name: "empty"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("region geometry is not validated: %v", err)
	}
}

func TestDefaultConfigPath_Env(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath: %v", err)
	}
	if path != "/tmp/custom.yaml" {
		t.Fatalf("expected env override, got %q", path)
	}
}

func TestDefaultConfigPath_Home(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("HOME", "/home/tester")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath: %v", err)
	}
	if path != "/home/tester/.config/regionbar/config.yaml" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestExpandedIconOverridesDir(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := DefaultConfig()
	dir, err := cfg.ExpandedIconOverridesDir()
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if dir != "/home/tester/.config/regionbar/icons" {
		t.Fatalf("unexpected dir %q", dir)
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "poll_interval: 250ms") {
		t.Fatalf("expected durations rendered as strings, got:\n%s", data)
	}

	path := writeConfig(t, t.TempDir(), "config.yaml", string(data))
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("printed config should load back: %v", err)
	}
	if res.Config.CommandQueue != cfg.CommandQueue {
		t.Fatalf("round trip changed command_queue")
	}
}
