package service

import "github.com/codewandler/svckit-go/core/metrics"

// ServiceMetrics defines the metrics surface of the service actor.
// All methods are thread-safe.
type ServiceMetrics interface {
	// Message handling, labelled by operation (start/stop/receive).
	MessageDuration(op string) metrics.Timer
	MessageProcessed(op string, success bool)
	MessagePanic(op string)

	// Inbox
	InboxDepth(key string, depth int)
}

// nopServiceMetrics is a no-op implementation of ServiceMetrics.
type nopServiceMetrics struct{}

func (nopServiceMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopServiceMetrics) MessageProcessed(string, bool)        {}
func (nopServiceMetrics) MessagePanic(string)                  {}

func (nopServiceMetrics) InboxDepth(string, int) {}

// NopServiceMetrics returns a no-op ServiceMetrics implementation.
func NopServiceMetrics() ServiceMetrics { return nopServiceMetrics{} }
