package config

import (
	"fmt"
)

// ValidationError reports an invalid value at a YAML path, with the file
// position when the value came from a file.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.PollInterval != nil {
		cfg.PollInterval = *raw.PollInterval
	}
	if raw.IconPollInterval != nil {
		cfg.IconPollInterval = *raw.IconPollInterval
	}
	cfg.CommandWorkers = derefInt(raw.CommandWorkers, cfg.CommandWorkers)
	cfg.CommandQueue = derefInt(raw.CommandQueue, cfg.CommandQueue)
	cfg.BorderMargin = derefInt(raw.BorderMargin, cfg.BorderMargin)
	cfg.CompactHeader = derefInt(raw.CompactHeader, cfg.CompactHeader)

	if raw.BorderCorrection != nil {
		if raw.BorderCorrection.Include != nil {
			cfg.BorderCorrection.Include = append([]string{}, (*raw.BorderCorrection.Include)...)
		}
		if raw.BorderCorrection.Exclude != nil {
			cfg.BorderCorrection.Exclude = append([]string{}, (*raw.BorderCorrection.Exclude)...)
		}
	}
	if raw.IgnoreTitles != nil {
		cfg.IgnoreTitles = append([]string{}, (*raw.IgnoreTitles)...)
	}
	if raw.IconOverridesDir != nil {
		cfg.IconOverridesDir = *raw.IconOverridesDir
	}
	if raw.Regions != nil {
		cfg.Regions = append([]Region{}, (*raw.Regions)...)
	}
	if raw.GroupHotkey != nil {
		cfg.GroupHotkey = *raw.GroupHotkey
	}
	if raw.FitHotkeys != nil {
		for region, key := range *raw.FitHotkeys {
			cfg.FitHotkeys[region] = key
		}
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	return cfg
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
