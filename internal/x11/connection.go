package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection holds one X server connection and its root window.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection connects to display, or to $DISPLAY when display is empty.
// The keybind tables are loaded so hotkeys can be grabbed on this connection.
func NewConnection(display string) (*Connection, error) {
	var (
		xu  *xgbutil.XUtil
		err error
	)
	if display == "" {
		xu, err = xgbutil.NewConn()
	} else {
		xu, err = xgbutil.NewConnDisplay(display)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open display %q: %w", display, err)
	}

	keybind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// WindowManagerName reports the running EWMH window manager, or "" when
// none advertises itself.
func (c *Connection) WindowManagerName() string {
	name, err := ewmh.GetEwmhWM(c.XUtil)
	if err != nil {
		return ""
	}
	return name
}

// EventLoop dispatches X events to registered callbacks until QuitEventLoop.
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// QuitEventLoop makes a running EventLoop return.
func (c *Connection) QuitEventLoop() {
	xevent.Quit(c.XUtil)
}

func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
