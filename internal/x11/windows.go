package x11

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// ErrNoPID is returned by WindowPID when the client never set _NET_WM_PID.
var ErrNoPID = errors.New("window has no _NET_WM_PID")

// Geometry is a window rectangle in root coordinates.
type Geometry struct {
	X, Y, Width, Height int
}

// State is the live mapping state of a window.
type State struct {
	Valid     bool
	Viewable  bool
	Minimized bool
}

// ClientList returns the managed top-level windows in the order the window
// manager reports them.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// WindowTitle returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// WindowGeometry returns the window rectangle translated to root coordinates.
func (c *Connection) WindowGeometry(windowID xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Geometry{}, err
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return Geometry{}, err
	}

	return Geometry{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// WindowPID returns _NET_WM_PID for the window, or ErrNoPID when the
// property is absent. Other errors mean the request itself failed.
func (c *Connection) WindowPID(windowID xproto.Window) (int, error) {
	atom, err := xprop.Atm(c.XUtil, "_NET_WM_PID")
	if err != nil {
		return 0, fmt.Errorf("failed to intern _NET_WM_PID: %w", err)
	}
	reply, err := xproto.GetProperty(c.XUtil.Conn(), false, windowID, atom,
		xproto.AtomCardinal, 0, 1).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get _NET_WM_PID: %w", err)
	}
	return pidFromProperty(reply.Format, reply.ValueLen, reply.Value)
}

func pidFromProperty(format byte, n uint32, value []byte) (int, error) {
	if format != 32 || n < 1 || len(value) < 4 {
		return 0, ErrNoPID
	}
	pid := int(xgb.Get32(value))
	if pid == 0 {
		return 0, ErrNoPID
	}
	return pid, nil
}

// IsWindowGone reports whether err is an X BadWindow or BadDrawable error,
// meaning the window no longer exists.
func IsWindowGone(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		switch err.(type) {
		case xproto.WindowError, *xproto.WindowError, xproto.DrawableError, *xproto.DrawableError:
			return true
		}
	}
	return false
}

// WindowState reports whether the window exists, is viewable, and is hidden
// (iconified) according to EWMH or ICCCM.
func (c *Connection) WindowState(windowID xproto.Window) State {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return State{}
	}

	st := State{
		Valid:    true,
		Viewable: attrs.MapState == xproto.MapStateViewable,
	}

	if states, err := ewmh.WmStateGet(c.XUtil, windowID); err == nil {
		for _, s := range states {
			if s == "_NET_WM_STATE_HIDDEN" {
				st.Minimized = true
			}
		}
	}
	if !st.Minimized {
		if wmState, err := icccm.WmStateGet(c.XUtil, windowID); err == nil {
			st.Minimized = wmState.State == icccm.StateIconic
		}
	}
	return st
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// Maximized windows ignore move requests on most window managers.
	c.unmaximizeWindow(windowID)

	err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}

	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, state)
		}
	}
}

// GetActiveWindow returns _NET_ACTIVE_WINDOW, 0 when nothing is focused.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}
