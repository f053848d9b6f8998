// Package service represents a unit of mutable runtime state (a database
// pool, a listener, a counter) as an isolated actor reachable only through
// asynchronous messages. Each service:
//
//   - Owns its lifecycle state in a single loop goroutine (no locks,
//     single-writer discipline)
//   - Processes start/stop/ask messages sequentially from a bounded inbox
//   - Answers every message through a per-call reply slot, bounded by a
//     configurable timeout
//
// # Creating services
//
//	h := service.New(service.Spec{
//	    Start: func(config any) (any, error) {
//	        return openPool(config.(string))
//	    },
//	    Stop: func(instance any) error {
//	        return instance.(*Pool).Close()
//	    },
//	    Receive: func(instance any, args ...any) (any, error) {
//	        return instance.(*Pool).Query(args[0].(string))
//	    },
//	})
//	defer h.Close()
//
//	if err := h.Start(ctx, "dsn"); err != nil { ... }
//	rows, err := h.Ask(ctx, "select 1")
//
// Start and Stop are idempotent: repeated starts invoke the user start
// function once and return the existing instance. Asks against a stopped
// service fail with [ErrNotRunning].
//
// # Composition
//
// [NewMap] composes named services into one service that starts, stops and
// routes as a single unit. Children start and stop concurrently; asks
// route by child name. Aggregates are ordinary services, so they nest via
// [MapSpec].
//
// # Timeouts
//
// Every call through a [Handle] is bounded twice: enqueueing on a full
// inbox fails with [ErrPutTimeout] after the window elapses, waiting for a
// reply fails with [ErrTakeTimeout]. A timeout releases only the caller —
// in-flight work inside the actor is not cancelled, so treat a timeout as
// "no confirmed outcome". [OverrideTimeout] installs a process-wide bound
// for test control.
//
// # Failure signaling
//
// Failures travel as values through the reply slot and come back as
// ordinary errors from Start/Stop/Ask. Errors and panics raised by
// user-supplied functions are wrapped as [ErrUserFunction]; a panic never
// kills the loop.
package service
