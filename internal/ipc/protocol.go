package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/regionbar/internal/platform"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandListWindows   CommandType = "LIST_WINDOWS"
	CommandListRegions   CommandType = "LIST_REGIONS"
	CommandActivate      CommandType = "ACTIVATE"
	CommandFitRegion     CommandType = "FIT_REGION"
	CommandGroup         CommandType = "GROUP"
	CommandToggleCompact CommandType = "TOGGLE_COMPACT"
	CommandReload        CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	WindowCount   int    `json:"window_count"`
	RegionCount   int    `json:"region_count"`
	Foreground    uint32 `json:"foreground,omitempty"`
	Cycles        uint64 `json:"cycles"`
	PendingIcons  int    `json:"pending_icons"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// WindowData describes one tracked window.
type WindowData struct {
	ID              uint32        `json:"id"`
	Title           string        `json:"title"`
	PID             int           `json:"pid"`
	Executable      string        `json:"executable"`
	Bounds          platform.Rect `json:"bounds"`
	Region          string        `json:"region,omitempty"`
	Manageable      bool          `json:"manageable"`
	Compact         bool          `json:"compact"`
	BorderCorrected bool          `json:"border_corrected"`
	HasIcon         bool          `json:"has_icon"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowData `json:"windows"`
}

// RegionData is one region with its manageable windows.
type RegionData struct {
	Name       string        `json:"name"`
	Bounds     platform.Rect `json:"bounds"`
	Windows    []WindowData  `json:"windows"`
	LastActive uint32        `json:"last_active,omitempty"`
}

// RegionsData represents the data returned by LIST_REGIONS
type RegionsData struct {
	Regions []RegionData `json:"regions"`
}

type ActivatePayload struct {
	WindowID uint32 `json:"window_id"`
}

type FitRegionPayload struct {
	Region string `json:"region"`
}

// ToggleCompactPayload targets a window; Region defaults to the region the
// window's center is in.
type ToggleCompactPayload struct {
	WindowID uint32 `json:"window_id"`
	Region   string `json:"region,omitempty"`
}

// CountData reports how many windows a bulk command touched.
type CountData struct {
	Count int `json:"count"`
}

type ToggleCompactData struct {
	Compact bool   `json:"compact"`
	Region  string `json:"region"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// NewRequest builds a request, marshaling payload when it is not nil.
func NewRequest(cmd CommandType, payload interface{}) (*Request, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	return req, nil
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
