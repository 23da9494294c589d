package tracker

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/regionbar/internal/window"
)

// EventKind identifies a tracker event.
type EventKind int

const (
	WindowCreated EventKind = iota
	WindowDestroyed
	WindowTitleChanged
	WindowRectangleChanged
	ForegroundWindowChanged
	eventKindCount
)

func (k EventKind) String() string {
	switch k {
	case WindowCreated:
		return "window_created"
	case WindowDestroyed:
		return "window_destroyed"
	case WindowTitleChanged:
		return "window_title_changed"
	case WindowRectangleChanged:
		return "window_rectangle_changed"
	case ForegroundWindowChanged:
		return "foreground_window_changed"
	default:
		return "unknown"
	}
}

// Handler receives the window an event is about. For ForegroundWindowChanged
// the window is nil when the foreground is not a tracked window.
//
// Handlers run synchronously on the tracking goroutine and must not block or
// call Update.
type Handler func(w *window.Window)

// Subscription identifies a registered handler.
type Subscription struct {
	ID   uuid.UUID
	Kind EventKind
}

type subscriber struct {
	id uuid.UUID
	fn Handler
}

// observers is a per-kind list of handlers kept in subscription order.
type observers struct {
	mu    sync.RWMutex
	lists [eventKindCount][]subscriber
}

func (o *observers) add(kind EventKind, fn Handler) Subscription {
	sub := Subscription{ID: uuid.New(), Kind: kind}
	o.mu.Lock()
	o.lists[kind] = append(o.lists[kind], subscriber{id: sub.ID, fn: fn})
	o.mu.Unlock()
	return sub
}

func (o *observers) remove(sub Subscription) bool {
	if sub.Kind < 0 || sub.Kind >= eventKindCount {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	list := o.lists[sub.Kind]
	for i, s := range list {
		if s.id == sub.ID {
			next := make([]subscriber, 0, len(list)-1)
			next = append(next, list[:i]...)
			o.lists[sub.Kind] = append(next, list[i+1:]...)
			return true
		}
	}
	return false
}

// emit calls every handler for kind. Handlers may subscribe or unsubscribe
// while being called: add and remove never write within the length of
// a slice already handed out, so the snapshot taken under the read lock stays stable.
func (o *observers) emit(logger *slog.Logger, kind EventKind, w *window.Window) {
	o.mu.RLock()
	list := o.lists[kind]
	o.mu.RUnlock()

	for _, s := range list {
		callHandler(logger, kind, s, w)
	}
}

func callHandler(logger *slog.Logger, kind EventKind, s subscriber, w *window.Window) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panic recovered", "event", kind.String(), "subscription", s.id, "panic", r)
		}
	}()
	s.fn(w)
}
