package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOverrideTimeout_precedence(t *testing.T) {
	block := make(chan struct{})

	h := newTestService(t, Spec{
		Timeout: 10 * time.Second,
		Start: func(any) (any, error) {
			<-block
			return nil, nil
		},
	})
	t.Cleanup(func() { close(block) })

	restore := OverrideTimeout(50 * time.Millisecond)
	defer restore()

	begin := time.Now()
	err := h.Start(t.Context(), nil)
	require.ErrorIs(t, err, ErrTakeTimeout)
	// the override bounds the wait, not the configured 10s
	require.Less(t, time.Since(begin), 2*time.Second)
}

func TestOverrideTimeout_restore(t *testing.T) {
	restore := OverrideTimeout(time.Millisecond)
	require.Equal(t, time.Millisecond, effectiveTimeout(time.Hour))

	restore()
	require.Equal(t, time.Hour, effectiveTimeout(time.Hour))
	require.Equal(t, DefaultTimeout, effectiveTimeout(0))
}
