package service

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// operation labels used for logging and metrics
const (
	opStart   = "start"
	opStop    = "stop"
	opReceive = "receive"
)

// lifecycleState is the published snapshot of the lifecycle cell. The loop
// goroutine is its only writer; [Handle.Started] reads it lock-free.
type lifecycleState struct {
	started  bool
	instance any
}

// actor owns one service instance. All lifecycle transitions happen inside
// its loop goroutine, which is the single consumer of the inbox.
type actor struct {
	spec    Spec
	log     *slog.Logger
	metrics ServiceMetrics

	inbox chan message

	stop chan struct{}
	done chan struct{}

	mu     sync.Mutex
	closed bool

	state atomic.Pointer[lifecycleState]

	// onClose runs in the loop goroutine after the loop exits, before done
	// is closed. Set by NewMap to tear down child actors.
	onClose func()
}

func (a *actor) loop() {
	defer close(a.done)
	if a.onClose != nil {
		defer a.onClose()
	}
	for {
		select {
		case <-a.stop:
			return
		case msg := <-a.inbox:
			a.dispatch(msg)
			a.metrics.InboxDepth(a.spec.Key, len(a.inbox))
		}
	}
}

// dispatch routes one message to its handler. The recover contains faults
// in the dispatch logic itself so the loop survives; the waiting slot still
// gets an answer (non-blocking: the slot is buffered and may already hold
// the reply).
func (a *actor) dispatch(msg message) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("dispatch panicked",
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())))
			select {
			case msg.slot() <- result{err: fmt.Errorf("service %s: dispatch fault: %v", a.spec.Key, r)}:
			default:
			}
		}
	}()

	switch m := msg.(type) {
	case startMsg:
		a.handleStart(m)
	case stopMsg:
		a.handleStop(m)
	case receiveMsg:
		a.handleReceive(m)
	default:
		// nothing is waiting on a message kind we never produced
		a.log.Error("unknown message", slog.Any("msg", msg))
	}
}

func (a *actor) handleStart(m startMsg) {
	st := a.state.Load()
	if st.started {
		// idempotent: no side effect, reply with the current instance
		a.metrics.MessageProcessed(opStart, true)
		m.reply.deliver(st.instance, nil)
		return
	}

	inst, err := a.invoke(opStart, func() (any, error) {
		cfg := m.config
		if a.spec.MapConfig != nil {
			cfg = a.spec.MapConfig(cfg)
		}
		if a.spec.Start == nil {
			return nil, nil
		}
		return a.spec.Start(cfg)
	})
	if err != nil {
		m.reply.deliver(nil, err)
		return
	}

	a.state.Store(&lifecycleState{started: true, instance: inst})
	m.reply.deliver(inst, nil)
}

func (a *actor) handleStop(m stopMsg) {
	st := a.state.Load()
	if !st.started {
		a.metrics.MessageProcessed(opStop, true)
		m.reply.deliver(st.instance, nil)
		return
	}

	_, err := a.invoke(opStop, func() (any, error) {
		if a.spec.Stop == nil {
			return nil, nil
		}
		return nil, a.spec.Stop(st.instance)
	})
	if err != nil {
		// stay started, symmetric to a failed start staying stopped
		m.reply.deliver(nil, err)
		return
	}

	a.state.Store(&lifecycleState{started: false, instance: st.instance})
	m.reply.deliver(st.instance, nil)
}

func (a *actor) handleReceive(m receiveMsg) {
	st := a.state.Load()
	if !st.started {
		a.metrics.MessageProcessed(opReceive, false)
		m.reply.deliver(nil, fmt.Errorf("service %s: %w", a.spec.Key, ErrNotRunning))
		return
	}
	if a.spec.Receive == nil {
		a.metrics.MessageProcessed(opReceive, false)
		m.reply.deliver(nil, fmt.Errorf("service %s: %w", a.spec.Key, ErrNoReceiveHandler))
		return
	}

	v, err := a.invoke(opReceive, func() (any, error) {
		return a.spec.Receive(st.instance, m.args...)
	})
	m.reply.deliver(v, err)
}

// invoke runs a user-supplied function with panic containment. Errors and
// recovered panics come back as [ErrUserFunction]; errors that already
// carry one of the package's kinds pass through unchanged.
func (a *actor) invoke(op string, f func() (any, error)) (v any, err error) {
	defer a.metrics.MessageDuration(op).ObserveDuration()
	defer func() {
		a.metrics.MessageProcessed(op, err == nil)
	}()
	defer func() {
		if r := recover(); r != nil {
			a.metrics.MessagePanic(op)
			a.log.Error("user function panicked",
				slog.String("op", op),
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("service %s: %s: %w: %v", a.spec.Key, op, ErrUserFunction, r)
		}
	}()

	v, err = f()
	if err != nil && !isProtocolError(err) {
		err = fmt.Errorf("service %s: %s: %w: %w", a.spec.Key, op, ErrUserFunction, err)
	}
	return v, err
}
