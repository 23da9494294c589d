package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPollInterval     = 250 * time.Millisecond
	DefaultIconPollInterval = 100 * time.Millisecond
	DefaultCommandWorkers   = 4
	DefaultCommandQueue     = 64
	DefaultBorderMargin     = 8
	DefaultCompactHeader    = 53
	DefaultGroupHotkey      = "Control-Shift-g"

	// Default region layout: a 5120x1440 screen split 1:2:1 below a 28px bar,
	// with the leftmost 64px reserved for the bar's launcher.
	defaultScreenWidth  = 5120
	defaultScreenHeight = 1440
	defaultBarHeight    = 28
	defaultBarOffset    = 64
)

// Region is a named rectangle in virtual screen coordinates.
type Region struct {
	Name   string `yaml:"name"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// PatternList selects executables for border correction.
type PatternList struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Config is the effective daemon configuration.
type Config struct {
	PollInterval     time.Duration     `yaml:"poll_interval"`
	IconPollInterval time.Duration     `yaml:"icon_poll_interval"`
	CommandWorkers   int               `yaml:"command_workers"`
	CommandQueue     int               `yaml:"command_queue"`
	BorderMargin     int               `yaml:"border_margin"`
	CompactHeader    int               `yaml:"compact_header"`
	BorderCorrection PatternList       `yaml:"border_correction"`
	IgnoreTitles     []string          `yaml:"ignore_titles"`
	IconOverridesDir string            `yaml:"icon_overrides_dir"`
	Regions          []Region          `yaml:"regions"`
	GroupHotkey      string            `yaml:"group_hotkey"`
	FitHotkeys       map[string]string `yaml:"fit_hotkeys"`
	LogLevel         string            `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	quarter := defaultScreenWidth / 4
	height := defaultScreenHeight - defaultBarHeight
	return &Config{
		PollInterval:     DefaultPollInterval,
		IconPollInterval: DefaultIconPollInterval,
		CommandWorkers:   DefaultCommandWorkers,
		CommandQueue:     DefaultCommandQueue,
		BorderMargin:     DefaultBorderMargin,
		CompactHeader:    DefaultCompactHeader,
		BorderCorrection: PatternList{
			Include: []string{"chrome", "unity"},
			Exclude: []string{},
		},
		IgnoreTitles:     []string{"Microsoft Text Input Application", "Program Manager", ""},
		IconOverridesDir: "~/.config/regionbar/icons",
		Regions: []Region{
			{Name: "left", X: defaultBarOffset, Y: defaultBarHeight, Width: quarter - defaultBarOffset, Height: height},
			{Name: "center", X: quarter, Y: defaultBarHeight, Width: quarter * 2, Height: height},
			{Name: "right", X: quarter * 3, Y: defaultBarHeight, Width: quarter, Height: height},
		},
		GroupHotkey: DefaultGroupHotkey,
		FitHotkeys:  map[string]string{},
		LogLevel:    "info",
	}
}

// RegionNames returns region names in configured order.
func (c *Config) RegionNames() []string {
	names := make([]string, len(c.Regions))
	for i, r := range c.Regions {
		names[i] = r.Name
	}
	return names
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// ExpandedIconOverridesDir resolves a leading ~ in IconOverridesDir.
func (c *Config) ExpandedIconOverridesDir() (string, error) {
	return expandHome(c.IconOverridesDir)
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return &ValidationError{Path: "poll_interval", Err: fmt.Errorf("poll_interval must be > 0")}
	}
	if c.IconPollInterval <= 0 {
		return &ValidationError{Path: "icon_poll_interval", Err: fmt.Errorf("icon_poll_interval must be > 0")}
	}
	if c.CommandWorkers <= 0 {
		return &ValidationError{Path: "command_workers", Err: fmt.Errorf("command_workers must be > 0")}
	}
	if c.CommandQueue <= 0 {
		return &ValidationError{Path: "command_queue", Err: fmt.Errorf("command_queue must be > 0")}
	}
	if c.BorderMargin < 0 {
		return &ValidationError{Path: "border_margin", Err: fmt.Errorf("border_margin must be >= 0")}
	}
	if c.CompactHeader < 0 {
		return &ValidationError{Path: "compact_header", Err: fmt.Errorf("compact_header must be >= 0")}
	}
	if err := validatePatterns("border_correction.include", c.BorderCorrection.Include); err != nil {
		return err
	}
	if err := validatePatterns("border_correction.exclude", c.BorderCorrection.Exclude); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}

	if len(c.Regions) == 0 {
		return &ValidationError{Path: "regions", Err: fmt.Errorf("regions must not be empty")}
	}
	seen := make(map[string]struct{}, len(c.Regions))
	for _, r := range c.Regions {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return &ValidationError{Path: "regions", Err: fmt.Errorf("region name must not be empty")}
		}
		if _, dup := seen[name]; dup {
			return &ValidationError{Path: "regions", Err: fmt.Errorf("duplicate region name %q", name)}
		}
		seen[name] = struct{}{}
	}

	for _, name := range sortedKeys(c.FitHotkeys) {
		if _, ok := seen[name]; !ok {
			return &ValidationError{Path: "fit_hotkeys." + name, Err: fmt.Errorf("unknown region %q", name)}
		}
		if strings.TrimSpace(c.FitHotkeys[name]) == "" {
			return &ValidationError{Path: "fit_hotkeys." + name, Err: fmt.Errorf("hotkey must not be empty")}
		}
	}
	return nil
}

func validatePatterns(field string, patterns []string) error {
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return &ValidationError{Path: field, Err: fmt.Errorf("pattern must not be empty")}
		}
		if _, err := path.Match(strings.ToLower(p), ""); err != nil {
			return &ValidationError{Path: field, Err: fmt.Errorf("invalid pattern %q: %w", p, err)}
		}
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
