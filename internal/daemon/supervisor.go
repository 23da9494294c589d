package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
)

// Service forces the use of the String method so supervisor events name
// the failing loop.
type Service interface {
	String() string
	suture.Service
}

// NewSupervisor returns a supervisor that reports its events to logger.
func NewSupervisor(name string, logger *slog.Logger) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook: EventHook(logger),
		Timeout:   5 * time.Second,
	})
}

func EventHook(logger *slog.Logger) suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventStopTimeout:
			logger.Warn("service failed to terminate in a timely manner", "supervisor", e.SupervisorName, "service", e.ServiceName)
		case suture.EventServicePanic:
			logger.Error("service panicked", "supervisor", e.SupervisorName, "service", e.ServiceName, "panic", e.PanicMsg, "restarting", e.Restarting)
			logger.Debug(e.Stacktrace)
		case suture.EventServiceTerminate:
			logger.Error("service failed", "supervisor", e.SupervisorName, "service", e.ServiceName, "error", e.Err, "restarting", e.Restarting)
		case suture.EventBackoff:
			logger.Warn("too many service failures, backing off", "supervisor", e.SupervisorName)
		case suture.EventResume:
			logger.Info("exiting backoff state", "supervisor", e.SupervisorName)
		default:
			b, _ := json.Marshal(e)
			logger.Warn("unknown supervisor event", "type", int(e.Type()), "event", string(b))
		}
	}
}

// Add registers service with super, keeping non-context errors from being
// mistaken for shutdown.
func Add(super *suture.Supervisor, service Service) suture.ServiceToken {
	return super.Add(sanitizeService{Service: service})
}

type sanitizeService struct {
	Service
}

func (s sanitizeService) Serve(ctx context.Context) error {
	return SanitizeError(ctx, s.Service.Serve(ctx))
}

// SanitizeError returns a context error only when ctx itself is done; suture
// treats a context error as a request to stop the service for good.
func SanitizeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}

	var newErrs [3]error
	if errors.Is(err, suture.ErrDoNotRestart) {
		newErrs[0] = suture.ErrDoNotRestart
	}
	if errors.Is(err, suture.ErrTerminateSupervisorTree) {
		newErrs[1] = suture.ErrTerminateSupervisorTree
	}
	newErrs[2] = errors.New(err.Error())
	return errors.Join(newErrs[:]...)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func NewServiceFunc(name string, fn func(ctx context.Context) error) ServiceFunc {
	return ServiceFunc{name: name, fn: fn}
}

func (s ServiceFunc) String() string { return s.name }

func (s ServiceFunc) Serve(ctx context.Context) error { return s.fn(ctx) }

// EventLooper is a blocking OS event loop that can be asked to return.
type EventLooper interface {
	EventLoop()
	QuitEventLoop()
}

// EventLoopService runs l until ctx is cancelled.
func EventLoopService(name string, l EventLooper) ServiceFunc {
	return NewServiceFunc(name, func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				l.QuitEventLoop()
			case <-done:
			}
		}()
		l.EventLoop()
		close(done)
		if err := ctx.Err(); err != nil {
			return err
		}
		return errors.New("event loop exited")
	})
}
