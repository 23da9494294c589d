package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/regionbar/internal/ipc"
)

const (
	ServerName    = "regionbar"
	ServerVersion = "0.1.0"
)

// Client is the subset of the daemon IPC client the tools forward to.
type Client interface {
	ListWindows() (*ipc.WindowsData, error)
	ListRegions() (*ipc.RegionsData, error)
	FitRegion(region string) (int, error)
	Group() (int, error)
	Activate(windowID uint32) error
	ToggleCompact(windowID uint32, region string) (*ipc.ToggleCompactData, error)
}

// Server is the MCP server exposing window and region tools.
type Server struct {
	mcpServer *mcpsdk.Server
	client    Client
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards every tool call to client.
func NewServer(client Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{client: client, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List every window the regionbar daemon tracks with its title, executable, bounds, region and compact state. Optionally filter by region.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_regions",
		Description: "List the configured screen regions with their bounds, the manageable windows in each and the last active window.",
	}, s.handleListRegions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "fit_region",
		Description: "Resize every manageable window in a region so it fills the region. Returns how many windows were resized.",
	}, s.handleFitRegion)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "group_windows",
		Description: "Snap every manageable window into the region its center lies in. Returns how many windows were resized.",
	}, s.handleGroupWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_window",
		Description: "Bring a window to the foreground and record it as the last active window of its region.",
	}, s.handleActivateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_compact",
		Description: "Toggle compact mode for a window (hides the title bar allowance) and refit it into its region.",
	}, s.handleToggleCompact)
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("list windows: %w", err)
	}
	out := ListWindowsOutput{Windows: []ipc.WindowData{}}
	for _, w := range data.Windows {
		if args.Region != "" && w.Region != args.Region {
			continue
		}
		out.Windows = append(out.Windows, w)
	}
	return nil, out, nil
}

func (s *Server) handleListRegions(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListRegionsInput) (*mcpsdk.CallToolResult, ListRegionsOutput, error) {
	data, err := s.client.ListRegions()
	if err != nil {
		return nil, ListRegionsOutput{}, fmt.Errorf("list regions: %w", err)
	}
	return nil, ListRegionsOutput{Regions: data.Regions}, nil
}

func (s *Server) handleFitRegion(_ context.Context, _ *mcpsdk.CallToolRequest, args FitRegionInput) (*mcpsdk.CallToolResult, CountOutput, error) {
	if args.Region == "" {
		return nil, CountOutput{}, fmt.Errorf("region is required")
	}
	n, err := s.client.FitRegion(args.Region)
	if err != nil {
		return nil, CountOutput{}, fmt.Errorf("fit region %q: %w", args.Region, err)
	}
	s.logger.Debug("mcp fit_region", "region", args.Region, "windows", n)
	return nil, CountOutput{Count: n}, nil
}

func (s *Server) handleGroupWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ GroupWindowsInput) (*mcpsdk.CallToolResult, CountOutput, error) {
	n, err := s.client.Group()
	if err != nil {
		return nil, CountOutput{}, fmt.Errorf("group windows: %w", err)
	}
	return nil, CountOutput{Count: n}, nil
}

func (s *Server) handleActivateWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ActivateWindowInput) (*mcpsdk.CallToolResult, ActivateWindowOutput, error) {
	if args.WindowID == 0 {
		return nil, ActivateWindowOutput{}, fmt.Errorf("window_id is required")
	}
	if err := s.client.Activate(args.WindowID); err != nil {
		return nil, ActivateWindowOutput{}, fmt.Errorf("activate window %d: %w", args.WindowID, err)
	}
	return nil, ActivateWindowOutput{WindowID: args.WindowID}, nil
}

func (s *Server) handleToggleCompact(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleCompactInput) (*mcpsdk.CallToolResult, ToggleCompactOutput, error) {
	if args.WindowID == 0 {
		return nil, ToggleCompactOutput{}, fmt.Errorf("window_id is required")
	}
	data, err := s.client.ToggleCompact(args.WindowID, args.Region)
	if err != nil {
		return nil, ToggleCompactOutput{}, fmt.Errorf("toggle compact for window %d: %w", args.WindowID, err)
	}
	return nil, ToggleCompactOutput{WindowID: args.WindowID, Compact: data.Compact, Region: data.Region}, nil
}
