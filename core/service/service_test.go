package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, spec Spec) *Handle {
	t.Helper()
	h := New(spec)
	t.Cleanup(h.Close)
	return h
}

func TestService_generated_key(t *testing.T) {
	h := newTestService(t, Spec{})
	require.NotEmpty(t, h.Key())

	require.NoError(t, h.Start(t.Context(), nil))
	_, err := h.Ask(t.Context(), "x")
	require.ErrorIs(t, err, ErrNoReceiveHandler)
}

func TestService_start_stop_idempotent(t *testing.T) {
	var effects atomic.Int32
	h := newTestService(t, Spec{
		Start: func(config any) (any, error) {
			effects.Add(1)
			return config, nil
		},
		Stop: func(instance any) error {
			effects.Add(1)
			return nil
		},
	})

	for range 3 {
		require.NoError(t, h.Start(t.Context(), "cfg"))
	}
	require.True(t, h.Started())

	for range 3 {
		require.NoError(t, h.Stop(t.Context()))
	}
	require.True(t, h.Stopped())

	// one start effect, one stop effect
	require.EqualValues(t, 2, effects.Load())
}

func TestService_instance_is_start_result(t *testing.T) {
	h := newTestService(t, Spec{
		Start:   func(config any) (any, error) { return config, nil },
		Receive: func(instance any, _ ...any) (any, error) { return instance, nil },
	})

	require.NoError(t, h.Start(t.Context(), "config"))
	v, err := h.Ask(t.Context())
	require.NoError(t, err)
	require.Equal(t, "config", v)
}

func TestService_map_config(t *testing.T) {
	var applied atomic.Int32
	h := newTestService(t, Spec{
		MapConfig: func(config any) any {
			applied.Add(1)
			return "other"
		},
		Start:   func(config any) (any, error) { return config, nil },
		Receive: func(instance any, _ ...any) (any, error) { return instance, nil },
	})

	require.NoError(t, h.Start(t.Context(), "config"))
	v, err := h.Ask(t.Context())
	require.NoError(t, err)
	require.Equal(t, "other", v)
	require.EqualValues(t, 1, applied.Load())
}

func TestService_ask_not_running(t *testing.T) {
	h := newTestService(t, Spec{
		Receive: func(_ any, args ...any) (any, error) { return args[0], nil },
	})

	_, err := h.Ask(t.Context(), 1)
	require.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, h.Start(t.Context(), nil))
	v, err := h.Ask(t.Context(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	require.NoError(t, h.Stop(t.Context()))
	_, err = h.Ask(t.Context(), 1)
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestService_start_error_stays_stopped(t *testing.T) {
	h := newTestService(t, Spec{
		Start: func(any) (any, error) { return nil, errors.New("boom") },
	})

	err := h.Start(t.Context(), nil)
	require.ErrorIs(t, err, ErrUserFunction)
	require.ErrorContains(t, err, "boom")
	require.True(t, h.Stopped())
}

func TestService_stop_error_stays_started(t *testing.T) {
	h := newTestService(t, Spec{
		Stop: func(any) error { return errors.New("boom") },
	})

	require.NoError(t, h.Start(t.Context(), nil))
	err := h.Stop(t.Context())
	require.ErrorIs(t, err, ErrUserFunction)
	require.True(t, h.Started())
}

func TestService_receive_panic_keeps_loop_alive(t *testing.T) {
	h := newTestService(t, Spec{
		Receive: func(_ any, args ...any) (any, error) {
			if args[0] == "boom" {
				panic("kaboom")
			}
			return args[0], nil
		},
	})

	require.NoError(t, h.Start(t.Context(), nil))

	_, err := h.Ask(t.Context(), "boom")
	require.ErrorIs(t, err, ErrUserFunction)
	require.ErrorContains(t, err, "kaboom")

	// the loop keeps processing after the panic
	v, err := h.Ask(t.Context(), "ok")
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}

func TestService_start_timeout(t *testing.T) {
	h := newTestService(t, Spec{
		Timeout: 100 * time.Millisecond,
		Start: func(any) (any, error) {
			time.Sleep(1 * time.Second)
			return nil, nil
		},
	})

	begin := time.Now()
	err := h.Start(t.Context(), nil)
	require.ErrorIs(t, err, ErrTakeTimeout)
	// control returns at roughly the configured window, not when the
	// start function finishes
	require.Less(t, time.Since(begin), 800*time.Millisecond)
}

func TestService_put_timeout(t *testing.T) {
	block := make(chan struct{})
	entered := make(chan struct{}, 1)
	release := sync.OnceFunc(func() { close(block) })
	t.Cleanup(release)

	h := newTestService(t, Spec{
		Timeout:       200 * time.Millisecond,
		InboxCapacity: 1,
		Receive: func(_ any, _ ...any) (any, error) {
			entered <- struct{}{}
			<-block
			return nil, nil
		},
	})
	require.NoError(t, h.Start(t.Context(), nil))

	errs := make(chan error, 2)
	go func() {
		_, err := h.Ask(t.Context(), 1)
		errs <- err
	}()
	<-entered // first ask occupies the loop

	go func() {
		_, err := h.Ask(t.Context(), 2)
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond) // second ask fills the inbox slot

	_, err := h.Ask(t.Context(), 3)
	require.ErrorIs(t, err, ErrPutTimeout)

	release()
	<-entered
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestService_concurrent_asks_serialized(t *testing.T) {
	// n is loop-owned state: no mutex needed, the loop is the only writer
	n := 0
	h := newTestService(t, Spec{
		Receive: func(any, ...any) (any, error) {
			n++
			return n, nil
		},
	})
	require.NoError(t, h.Start(t.Context(), nil))

	const callers = 25
	errs := make(chan error, callers)
	for range callers {
		go func() {
			_, err := h.Ask(t.Context())
			errs <- err
		}()
	}
	for range callers {
		require.NoError(t, <-errs)
	}

	v, err := h.Ask(t.Context())
	require.NoError(t, err)
	require.Equal(t, callers+1, v)
}
