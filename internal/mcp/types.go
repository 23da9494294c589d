package mcp

import "github.com/1broseidon/regionbar/internal/ipc"

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Region string `json:"region,omitempty" jsonschema:"Only return windows whose center lies in this region"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []ipc.WindowData `json:"windows"`
}

// ListRegionsInput is the input for the list_regions tool.
type ListRegionsInput struct{}

// ListRegionsOutput is the output for the list_regions tool.
type ListRegionsOutput struct {
	Regions []ipc.RegionData `json:"regions"`
}

// FitRegionInput is the input for the fit_region tool.
type FitRegionInput struct {
	Region string `json:"region" jsonschema:"Name of the region whose windows are resized to fill it"`
}

// CountOutput reports how many windows a bulk tool touched.
type CountOutput struct {
	Count int `json:"count"`
}

// GroupWindowsInput is the input for the group_windows tool.
type GroupWindowsInput struct{}

// ActivateWindowInput is the input for the activate_window tool.
type ActivateWindowInput struct {
	WindowID uint32 `json:"window_id" jsonschema:"X11 window id as reported by list_windows"`
}

// ActivateWindowOutput is the output for the activate_window tool.
type ActivateWindowOutput struct {
	WindowID uint32 `json:"window_id"`
}

// ToggleCompactInput is the input for the toggle_compact tool.
type ToggleCompactInput struct {
	WindowID uint32 `json:"window_id" jsonschema:"X11 window id as reported by list_windows"`
	Region   string `json:"region,omitempty" jsonschema:"Region to fit into afterwards (default: the region the window is in)"`
}

// ToggleCompactOutput is the output for the toggle_compact tool.
type ToggleCompactOutput struct {
	WindowID uint32 `json:"window_id"`
	Compact  bool   `json:"compact"`
	Region   string `json:"region"`
}
