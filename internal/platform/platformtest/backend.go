// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"errors"
	"sync"

	"github.com/1broseidon/regionbar/internal/platform"
)

// MoveCall records one MoveResize invocation.
type MoveCall struct {
	ID     platform.WindowID
	Bounds platform.Rect
}

// Backend is a scripted platform.Backend. The zero value is not usable; call New.
type Backend struct {
	mu sync.Mutex

	windows    []platform.WindowInfo
	foreground platform.WindowID
	processes  map[platform.WindowID]platform.Process
	states     map[platform.WindowID]platform.WindowState
	listErr    error
	processErr map[platform.WindowID]error
	commandErr error

	moves       []MoveCall
	activations []platform.WindowID
	lists       int
}

var _ platform.Backend = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		processes:  make(map[platform.WindowID]platform.Process),
		states:     make(map[platform.WindowID]platform.WindowState),
		processErr: make(map[platform.WindowID]error),
	}
}

// SetWindows replaces the enumeration result.
func (b *Backend) SetWindows(windows ...platform.WindowInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = append([]platform.WindowInfo(nil), windows...)
}

// SetForeground sets the handle reported by ActiveWindow.
func (b *Backend) SetForeground(id platform.WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.foreground = id
}

// SetProcess sets the process owning id.
func (b *Backend) SetProcess(id platform.WindowID, proc platform.Process) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processes[id] = proc
	delete(b.processErr, id)
}

// FailProcess makes ResolveProcess(id) fail with err.
func (b *Backend) FailProcess(id platform.WindowID, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processErr[id] = err
}

// SetState overrides the live state of id. Windows without an override are
// valid, visible and not minimized while they are enumerated.
func (b *Backend) SetState(id platform.WindowID, st platform.WindowState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[id] = st
}

// FailList makes ListWindows return err; nil clears it.
func (b *Backend) FailList(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listErr = err
}

// FailCommands makes MoveResize and Activate return err; nil clears it.
func (b *Backend) FailCommands(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commandErr = err
}

// Moves returns the recorded MoveResize calls.
func (b *Backend) Moves() []MoveCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]MoveCall(nil), b.moves...)
}

// Activations returns the recorded Activate calls.
func (b *Backend) Activations() []platform.WindowID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.WindowID(nil), b.activations...)
}

// ListCalls returns how many times ListWindows ran.
func (b *Backend) ListCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

func (b *Backend) ListWindows() ([]platform.WindowInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]platform.WindowInfo(nil), b.windows...), nil
}

func (b *Backend) ActiveWindow() (platform.WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.foreground, nil
}

func (b *Backend) ResolveProcess(id platform.WindowID) (platform.Process, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.processErr[id]; err != nil {
		return platform.Process{}, err
	}
	if proc, ok := b.processes[id]; ok {
		return proc, nil
	}
	return platform.Process{}, platform.ErrProcessGone
}

func (b *Backend) WindowState(id platform.WindowID) (platform.WindowState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.states[id]; ok {
		if !st.Valid {
			return platform.WindowState{}, platform.ErrWindowGone
		}
		return st, nil
	}
	for _, w := range b.windows {
		if w.ID == id {
			return platform.WindowState{Valid: true, Visible: true}, nil
		}
	}
	return platform.WindowState{}, platform.ErrWindowGone
}

func (b *Backend) MoveResize(id platform.WindowID, bounds platform.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.commandErr != nil {
		return b.commandErr
	}
	b.moves = append(b.moves, MoveCall{ID: id, Bounds: bounds})
	return nil
}

func (b *Backend) Activate(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.commandErr != nil {
		return b.commandErr
	}
	b.activations = append(b.activations, id)
	return nil
}

// ErrInjected is a generic failure for tests that need one.
var ErrInjected = errors.New("injected failure")
