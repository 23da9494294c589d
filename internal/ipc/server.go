package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/regionbar/internal/platform"
	"github.com/1broseidon/regionbar/internal/regions"
	"github.com/1broseidon/regionbar/internal/tracker"
	"github.com/1broseidon/regionbar/internal/window"
)

// Config holds the collaborators the server answers from.
type Config struct {
	SocketPath string
	Manager    *tracker.Manager
	Tiler      *regions.Tiler
	// Reload re-reads configuration. Nil makes RELOAD an error.
	Reload func() error
	// PendingIcons reports the icon queue length for GET_STATUS.
	PendingIcons func() int
	Logger       *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	manager      *tracker.Manager
	tiler        *regions.Tiler
	reload       func() error
	pendingIcons func() int
	logger       *slog.Logger
	startTime    time.Time

	mu           sync.Mutex
	listener     net.Listener
	shuttingDown bool
}

// NewServer creates a new IPC server
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath:   cfg.SocketPath,
		manager:      cfg.Manager,
		tiler:        cfg.Tiler,
		reload:       cfg.Reload,
		pendingIcons: cfg.PendingIcons,
		logger:       logger,
		startTime:    time.Now(),
	}
}

func (s *Server) String() string { return "ipc" }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket from a previous run.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.shuttingDown = false
	s.mu.Unlock()

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	go s.acceptLoop(listener)
	return nil
}

// Serve starts the server and stops it when ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

func (s *Server) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			stopping := s.shuttingDown
			s.mu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(10 * time.Second))

	data, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
	} else {
		resp = s.handleCommand(req)
	}

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}
	if _, err := conn.Write(append(respData, '\n')); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandListRegions:
		return s.handleListRegions()
	case CommandActivate:
		return s.handleActivate(req.Payload)
	case CommandFitRegion:
		return s.handleFitRegion(req.Payload)
	case CommandGroup:
		return s.handleGroup()
	case CommandToggleCompact:
		return s.handleToggleCompact(req.Payload)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		WindowCount:   s.manager.Len(),
		RegionCount:   len(s.tiler.Regions()),
		Cycles:        s.manager.Cycles(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	if fg := s.manager.Foreground(); fg != nil {
		status.Foreground = uint32(fg.ID())
	}
	if s.pendingIcons != nil {
		status.PendingIcons = s.pendingIcons()
	}
	return ok(status)
}

func (s *Server) handleListWindows() *Response {
	windows := s.manager.Windows()
	out := make([]WindowData, 0, len(windows))
	for _, w := range windows {
		region := ""
		if r, found := s.tiler.AssignRegion(w); found {
			region = r.Name
		}
		out = append(out, windowData(w, region, w.IsManageable()))
	}
	return ok(WindowsData{Windows: out})
}

func (s *Server) handleListRegions() *Response {
	layout := s.tiler.Layout()
	out := make([]RegionData, 0, len(layout))
	for _, g := range layout {
		rd := RegionData{
			Name:    g.Region.Name,
			Bounds:  g.Region.Bounds,
			Windows: make([]WindowData, 0, len(g.Windows)),
		}
		for _, w := range g.Windows {
			rd.Windows = append(rd.Windows, windowData(w, g.Region.Name, true))
		}
		if g.LastActive != nil {
			rd.LastActive = uint32(g.LastActive.ID())
		}
		out = append(out, rd)
	}
	return ok(RegionsData{Regions: out})
}

func (s *Server) lookup(id uint32) (*window.Window, error) {
	w, found := s.manager.Lookup(platform.WindowID(id))
	if !found {
		return nil, fmt.Errorf("%w: %d", tracker.ErrUnknownWindow, id)
	}
	return w, nil
}

func (s *Server) handleActivate(payload json.RawMessage) *Response {
	var req ActivatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	w, err := s.lookup(req.WindowID)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	if r, found := s.tiler.AssignRegion(w); found {
		if err := s.tiler.Select(w, r.Name); err != nil {
			return NewErrorResponse(err.Error())
		}
	} else {
		w.Activate()
	}
	return ok(nil)
}

func (s *Server) handleFitRegion(payload json.RawMessage) *Response {
	var req FitRegionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	n, err := s.tiler.FitAll(req.Region)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to fit region: %v", err))
	}
	return ok(CountData{Count: n})
}

func (s *Server) handleGroup() *Response {
	return ok(CountData{Count: s.tiler.GroupAll()})
}

func (s *Server) handleToggleCompact(payload json.RawMessage) *Response {
	var req ToggleCompactPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	w, err := s.lookup(req.WindowID)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	region := req.Region
	if region == "" {
		r, found := s.tiler.AssignRegion(w)
		if !found {
			return NewErrorResponse(fmt.Sprintf("window %d is not inside any region", req.WindowID))
		}
		region = r.Name
	}
	if err := s.tiler.CompactFit(w, region); err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(ToggleCompactData{Compact: w.Compact(), Region: region})
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	s.logger.Info("IPC: received RELOAD command")
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return ok(nil)
}

func windowData(w *window.Window, region string, manageable bool) WindowData {
	proc := w.Process()
	return WindowData{
		ID:              uint32(w.ID()),
		Title:           w.Title(),
		PID:             proc.PID,
		Executable:      proc.Executable,
		Bounds:          w.Bounds(),
		Region:          region,
		Manageable:      manageable,
		Compact:         w.Compact(),
		BorderCorrected: w.BorderCorrected(),
		HasIcon:         w.Icon() != nil,
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.mu.Lock()
	s.shuttingDown = true
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
		os.Remove(s.socketPath)
	}
}
