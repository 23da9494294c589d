package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawPatternList struct {
	Include *[]string `yaml:"include"`
	Exclude *[]string `yaml:"exclude"`
}

// RawConfig mirrors Config with every field optional so files can be merged
// and unset keys fall back to defaults.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	PollInterval     *time.Duration     `yaml:"poll_interval"`
	IconPollInterval *time.Duration     `yaml:"icon_poll_interval"`
	CommandWorkers   *int               `yaml:"command_workers"`
	CommandQueue     *int               `yaml:"command_queue"`
	BorderMargin     *int               `yaml:"border_margin"`
	CompactHeader    *int               `yaml:"compact_header"`
	BorderCorrection *RawPatternList    `yaml:"border_correction"`
	IgnoreTitles     *[]string          `yaml:"ignore_titles"`
	IconOverridesDir *string            `yaml:"icon_overrides_dir"`
	Regions          *[]Region          `yaml:"regions"`
	GroupHotkey      *string            `yaml:"group_hotkey"`
	FitHotkeys       *map[string]string `yaml:"fit_hotkeys"`
	LogLevel         *string            `yaml:"log_level"`
}

// merge returns c with every field set in overlay replacing it. Lists and
// regions replace wholesale; fit_hotkeys merge key by key.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	if overlay.PollInterval != nil {
		out.PollInterval = overlay.PollInterval
	}
	if overlay.IconPollInterval != nil {
		out.IconPollInterval = overlay.IconPollInterval
	}
	if overlay.CommandWorkers != nil {
		out.CommandWorkers = overlay.CommandWorkers
	}
	if overlay.CommandQueue != nil {
		out.CommandQueue = overlay.CommandQueue
	}
	if overlay.BorderMargin != nil {
		out.BorderMargin = overlay.BorderMargin
	}
	if overlay.CompactHeader != nil {
		out.CompactHeader = overlay.CompactHeader
	}
	if overlay.BorderCorrection != nil {
		merged := RawPatternList{}
		if out.BorderCorrection != nil {
			merged = *out.BorderCorrection
		}
		if overlay.BorderCorrection.Include != nil {
			merged.Include = overlay.BorderCorrection.Include
		}
		if overlay.BorderCorrection.Exclude != nil {
			merged.Exclude = overlay.BorderCorrection.Exclude
		}
		out.BorderCorrection = &merged
	}
	if overlay.IgnoreTitles != nil {
		out.IgnoreTitles = overlay.IgnoreTitles
	}
	if overlay.IconOverridesDir != nil {
		out.IconOverridesDir = overlay.IconOverridesDir
	}
	if overlay.Regions != nil {
		out.Regions = overlay.Regions
	}
	if overlay.GroupHotkey != nil {
		out.GroupHotkey = overlay.GroupHotkey
	}
	if overlay.FitHotkeys != nil {
		merged := make(map[string]string)
		if out.FitHotkeys != nil {
			for k, v := range *out.FitHotkeys {
				merged[k] = v
			}
		}
		for k, v := range *overlay.FitHotkeys {
			merged[k] = v
		}
		out.FitHotkeys = &merged
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	return out
}
