package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/svckit-go/core/service"
)

func TestServiceMetrics_records(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewServiceMetrics(reg)

	h := service.New(service.Spec{
		Key:     "prom-test",
		Metrics: m,
		Receive: func(_ any, args ...any) (any, error) { return args[0], nil },
	})
	t.Cleanup(h.Close)

	require.NoError(t, h.Start(t.Context(), nil))
	v, err := h.Ask(t.Context(), 42)
	require.NoError(t, err)
	require.Equal(t, 42, v)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["svckit_service_messages_total"])
	require.True(t, names["svckit_service_message_duration_seconds"])
	require.True(t, names["svckit_service_inbox_depth"])
}

func TestServiceMetrics_register_twice_panics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	NewServiceMetrics(reg)
	require.Panics(t, func() { NewServiceMetrics(reg) })
}
