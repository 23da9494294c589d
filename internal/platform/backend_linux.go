//go:build linux

package platform

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/1broseidon/regionbar/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection

	mu         sync.Mutex
	lastBounds map[WindowID]Rect
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to display
// ("" means $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop runs the X11 event loop until QuitEventLoop is called.
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// WindowManagerName reports the running window manager for diagnostics.
func (b *LinuxBackend) WindowManagerName() string {
	if b == nil || b.conn == nil {
		return ""
	}
	return b.conn.WindowManagerName()
}

// QuitEventLoop stops a running EventLoop.
func (b *LinuxBackend) QuitEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.QuitEventLoop()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// ListWindows returns every managed top-level window. Windows that vanished
// mid-enumeration are left out; a window whose geometry read fails for any
// other reason keeps the bounds it had on the previous call.
func (b *LinuxBackend) ListWindows() ([]WindowInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientList()
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	ids := make([]WindowID, len(clients))
	for i, c := range clients {
		ids[i] = WindowID(c)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var windows []WindowInfo
	windows, b.lastBounds = collectWindows(ids, func(id WindowID) (Rect, error) {
		geom, err := conn.WindowGeometry(xproto.Window(id))
		if err != nil {
			return Rect{}, err
		}
		return Rect{X: geom.X, Y: geom.Y, Width: geom.Width, Height: geom.Height}, nil
	}, func(id WindowID) string {
		return conn.WindowTitle(xproto.Window(id))
	}, b.lastBounds)
	return windows, nil
}

func collectWindows(ids []WindowID, bounds func(WindowID) (Rect, error), title func(WindowID) string, last map[WindowID]Rect) ([]WindowInfo, map[WindowID]Rect) {
	windows := make([]WindowInfo, 0, len(ids))
	seen := make(map[WindowID]Rect, len(ids))
	for _, id := range ids {
		r, err := bounds(id)
		if err != nil {
			prev, ok := last[id]
			if x11.IsWindowGone(err) || !ok {
				continue
			}
			r = prev
		}
		seen[id] = r
		windows = append(windows, WindowInfo{ID: id, Title: title(id), Bounds: r})
	}
	return windows, seen
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// ResolveProcess returns the pid and executable path owning the window.
func (b *LinuxBackend) ResolveProcess(windowID WindowID) (Process, error) {
	conn, err := b.connection()
	if err != nil {
		return Process{}, err
	}

	pid, err := conn.WindowPID(xproto.Window(windowID))
	return processFromPID(pid, err, os.Readlink)
}

func processFromPID(pid int, pidErr error, readlink func(string) (string, error)) (Process, error) {
	if errors.Is(pidErr, x11.ErrNoPID) {
		// Tracked without a process; nothing can match it for exclusion or icons.
		return Process{}, nil
	}
	if pidErr != nil {
		return Process{}, pidErr
	}

	exe, err := readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Process{}, fmt.Errorf("pid %d: %w", pid, ErrProcessGone)
		}
		// Processes owned by other users hide their exe link; the pid is
		// still enough for self-exclusion.
		return Process{PID: pid}, nil
	}
	return Process{PID: pid, Executable: exe}, nil
}

// WindowState reads validity, visibility and minimized state.
func (b *LinuxBackend) WindowState(windowID WindowID) (WindowState, error) {
	conn, err := b.connection()
	if err != nil {
		return WindowState{}, err
	}

	st := conn.WindowState(xproto.Window(windowID))
	if !st.Valid {
		return WindowState{}, ErrWindowGone
	}
	return WindowState{
		Valid:     true,
		Visible:   st.Viewable,
		Minimized: st.Minimized,
	}, nil
}

// MoveResize moves and resizes a window to the specified bounds.
func (b *LinuxBackend) MoveResize(windowID WindowID, bounds Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	return conn.MoveResizeWindow(
		xproto.Window(windowID),
		bounds.X,
		bounds.Y,
		bounds.Width,
		bounds.Height,
	)
}

// Activate gives the window input focus.
func (b *LinuxBackend) Activate(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.FocusWindow(xproto.Window(windowID))
}

// WindowIcon returns the window's own icon scaled closest to size pixels.
func (b *LinuxBackend) WindowIcon(windowID WindowID, size int) (image.Image, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	return conn.WindowIcon(xproto.Window(windowID), size)
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
