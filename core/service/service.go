package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultInboxCapacity bounds a service inbox when a Spec sets none.
const DefaultInboxCapacity = 1024

// Spec configures one service. The zero value is usable: the key is
// generated, start and stop default to no-ops, and receive always fails
// with [ErrNoReceiveHandler].
type Spec struct {
	// Key identifies the service. Generated when empty.
	Key string

	// Start builds the service instance from a config value.
	Start func(config any) (any, error)
	// Stop releases the instance. On error the service stays started.
	Stop func(instance any) error
	// Receive handles one ask against the started instance.
	Receive func(instance any, args ...any) (any, error)
	// MapConfig transforms the config before Start sees it.
	MapConfig func(config any) any

	// Timeout bounds the inbox enqueue wait and the reply wait of every
	// call through the handle. Defaults to [DefaultTimeout]. An active
	// [OverrideTimeout] takes precedence.
	Timeout time.Duration
	// InboxCapacity sets the bounded inbox size. Defaults to [DefaultInboxCapacity].
	InboxCapacity int

	Logger  *slog.Logger
	Metrics ServiceMetrics
}

// Handle is the caller-facing façade of one service actor. A handle holds
// no lifecycle state of its own and is safe for concurrent use from any
// number of goroutines.
type Handle struct {
	key string
	a   *actor
}

// New creates a service actor from spec and starts its processing loop.
// The service begins stopped; use [Handle.Start] to bring it up and
// [Handle.Close] to tear the loop down when the handle is no longer needed.
func New(spec Spec) *Handle {
	return newHandle(spec, nil)
}

// newHandle defaults the spec and spawns the loop. onClose, if set, runs in
// the loop goroutine once the loop exits.
func newHandle(spec Spec, onClose func()) *Handle {
	if spec.Key == "" {
		spec.Key = fmt.Sprintf("service-%s", gonanoid.Must(8))
	}
	if spec.InboxCapacity <= 0 {
		spec.InboxCapacity = DefaultInboxCapacity
	}
	if spec.Logger == nil {
		spec.Logger = slog.Default()
	}
	if spec.Metrics == nil {
		spec.Metrics = NopServiceMetrics()
	}

	a := &actor{
		spec:    spec,
		log:     spec.Logger.With(slog.String("service", spec.Key)),
		metrics: spec.Metrics,
		inbox:   make(chan message, spec.InboxCapacity),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		onClose: onClose,
	}
	a.state.Store(&lifecycleState{})

	go a.loop()
	return &Handle{key: spec.Key, a: a}
}

// Key returns the service identifier.
func (h *Handle) Key() string { return h.key }

// Start brings the service up with config. Starting an already started
// service is a no-op that succeeds without invoking the start function.
func (h *Handle) Start(ctx context.Context, config any) error {
	_, err := h.call(ctx, startMsg{config: config, reply: newReplySlot()})
	return err
}

// Stop brings the service down. Stopping an already stopped service is a
// no-op that succeeds without invoking the stop function.
func (h *Handle) Stop(ctx context.Context) error {
	_, err := h.call(ctx, stopMsg{reply: newReplySlot()})
	return err
}

// Ask sends args to the service's receive handler and waits for the result.
func (h *Handle) Ask(ctx context.Context, args ...any) (any, error) {
	return h.call(ctx, receiveMsg{args: args, reply: newReplySlot()})
}

// Started reports whether the service is currently started. It reads a
// snapshot published by the loop without going through the message
// protocol, so it can be momentarily stale under concurrent transitions.
func (h *Handle) Started() bool {
	st := h.a.state.Load()
	return st != nil && st.started
}

// Stopped reports whether the service is currently stopped.
func (h *Handle) Stopped() bool { return !h.Started() }

// Done is closed once the processing loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.a.done }

// Close terminates the processing loop and waits for it to exit. It does
// not run the stop function; stop the service first if its instance holds
// resources. Close is idempotent.
func (h *Handle) Close() {
	a := h.a
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	a.mu.Unlock()

	close(a.stop)
	<-a.done
}

// call runs one round of the send/receive protocol: enqueue with a bounded
// wait, then wait (fresh full window) for the reply. A timeout bounds only
// this caller; in-flight work inside the actor is not cancelled.
func (h *Handle) call(ctx context.Context, msg message) (any, error) {
	a := h.a
	timeout := effectiveTimeout(a.spec.Timeout)
	slot := msg.slot()

	put := time.NewTimer(timeout)
	defer put.Stop()
	select {
	case a.inbox <- msg:
	case <-put.C:
		return nil, fmt.Errorf("service %s: %w", h.key, ErrPutTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("service %s: send: %w", h.key, ctx.Err())
	case <-a.stop:
		return nil, fmt.Errorf("service %s: %w", h.key, ErrClosed)
	}
	a.metrics.InboxDepth(h.key, len(a.inbox))

	take := time.NewTimer(timeout)
	defer take.Stop()
	select {
	case res := <-slot:
		return res.value, res.err
	case <-take.C:
		return nil, fmt.Errorf("service %s: %w", h.key, ErrTakeTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("service %s: reply: %w", h.key, ctx.Err())
	case <-a.stop:
		// the loop may have delivered just before shutdown
		select {
		case res := <-slot:
			return res.value, res.err
		default:
			return nil, fmt.Errorf("service %s: %w", h.key, ErrClosed)
		}
	}
}
