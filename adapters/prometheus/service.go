package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/svckit-go/core/metrics"
	"github.com/codewandler/svckit-go/core/service"
)

// serviceMetrics implements service.ServiceMetrics using Prometheus.
type serviceMetrics struct {
	messageDuration *prometheus.HistogramVec
	messagesTotal   *prometheus.CounterVec
	panicTotal      *prometheus.CounterVec
	inboxDepth      *prometheus.GaugeVec
}

// NewServiceMetrics creates a new Prometheus implementation of ServiceMetrics.
func NewServiceMetrics(reg prometheus.Registerer) service.ServiceMetrics {
	m := &serviceMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "svckit_service_message_duration_seconds",
			Help:    "Message handling time in seconds",
			Buckets: defaultBuckets,
		}, []string{"op"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "svckit_service_messages_total",
			Help: "Total number of messages processed",
		}, []string{"op", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "svckit_service_panics_total",
			Help: "Total number of user function panics",
		}, []string{"op"}),

		inboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "svckit_service_inbox_depth",
			Help: "Current inbox queue depth",
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.inboxDepth,
	)

	return m
}

func (m *serviceMetrics) MessageDuration(op string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(op))
}

func (m *serviceMetrics) MessageProcessed(op string, success bool) {
	m.messagesTotal.WithLabelValues(op, boolToStr(success)).Inc()
}

func (m *serviceMetrics) MessagePanic(op string) {
	m.panicTotal.WithLabelValues(op).Inc()
}

func (m *serviceMetrics) InboxDepth(key string, depth int) {
	m.inboxDepth.WithLabelValues(key).Set(float64(depth))
}
