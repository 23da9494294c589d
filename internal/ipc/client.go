package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/regionbar/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; call surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(reqData, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// call sends cmd with payload and decodes the response data into out when
// out is not nil.
func (c *Client) call(cmd CommandType, payload interface{}, out interface{}) error {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return err
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListWindows retrieves every tracked window.
func (c *Client) ListWindows() (*WindowsData, error) {
	var data WindowsData
	if err := c.call(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListRegions retrieves every region with its manageable windows.
func (c *Client) ListRegions() (*RegionsData, error) {
	var data RegionsData
	if err := c.call(CommandListRegions, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Activate focuses a tracked window.
func (c *Client) Activate(windowID uint32) error {
	return c.call(CommandActivate, ActivatePayload{WindowID: windowID}, nil)
}

// FitRegion snaps every manageable window in region to fill it.
func (c *Client) FitRegion(region string) (int, error) {
	var data CountData
	if err := c.call(CommandFitRegion, FitRegionPayload{Region: region}, &data); err != nil {
		return 0, err
	}
	return data.Count, nil
}

// Group snaps every manageable window into the region containing its center.
func (c *Client) Group() (int, error) {
	var data CountData
	if err := c.call(CommandGroup, nil, &data); err != nil {
		return 0, err
	}
	return data.Count, nil
}

// ToggleCompact flips compact mode on a window and refits it. An empty
// region uses the window's current region.
func (c *Client) ToggleCompact(windowID uint32, region string) (*ToggleCompactData, error) {
	var data ToggleCompactData
	payload := ToggleCompactPayload{WindowID: windowID, Region: region}
	if err := c.call(CommandToggleCompact, payload, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
