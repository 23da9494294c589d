package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrWindowGone is returned when a handle no longer refers to a live window.
	ErrWindowGone = errors.New("window no longer exists")
	// ErrProcessGone is returned when the process owning a window has exited.
	ErrProcessGone = errors.New("owning process no longer exists")
)

// WindowID is a platform-neutral window handle.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Center returns the center point of the rectangle.
func (r Rect) Center() (x, y int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point lies inside the rectangle. The right and
// bottom edges are exclusive.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// WindowInfo is one entry of a window enumeration.
type WindowInfo struct {
	ID     WindowID
	Title  string
	Bounds Rect
}

// Process identifies the process owning a window.
type Process struct {
	PID        int
	Executable string
}

// ModuleName returns the lower-cased executable base name without extension,
// e.g. "/opt/google/chrome/chrome.bin" -> "chrome".
func (p Process) ModuleName() string {
	base := strings.ToLower(filepath.Base(p.Executable))
	if base == "." || base == "/" {
		return ""
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

// WindowState is the live OS state of a window.
type WindowState struct {
	Valid     bool
	Visible   bool
	Minimized bool
}

// Enumerator lists top-level windows and the current foreground window.
type Enumerator interface {
	// ListWindows returns all top-level windows in stacking or creation order.
	ListWindows() ([]WindowInfo, error)
	// ActiveWindow returns the foreground window, or 0 when none is focused.
	ActiveWindow() (WindowID, error)
}

// ProcessResolver maps a window to its owning process.
type ProcessResolver interface {
	ResolveProcess(windowID WindowID) (Process, error)
}

// Controller issues geometry and activation commands and reads live state.
type Controller interface {
	MoveResize(windowID WindowID, bounds Rect) error
	Activate(windowID WindowID) error
	WindowState(windowID WindowID) (WindowState, error)
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Enumerator
	ProcessResolver
	Controller
}
