// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for listener and connection counters.
// Exposes values in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"

	"github.com/momentics/wsengine/api"
)

// Metric keys maintained by the server listener and its connections.
const (
	MetricConnectionsAccepted = "connections.accepted"
	MetricConnectionsActive   = "connections.active"
	MetricConnectionsRejected = "connections.rejected"
	MetricHandshakeFailed     = "handshake.failed"
	MetricFramesIn            = "frames.in"
	MetricFramesOut           = "frames.out"
	MetricMessagesIn          = "messages.in"
)

// MetricsRegistry holds counters and gauges.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

var _ api.Metrics = (*MetricsRegistry)(nil)

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Add increments the int64 counter stored under key. A key holding a
// value of another type is replaced by delta.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	mr.mu.Lock()
	cur, _ := mr.metrics[key].(int64)
	mr.metrics[key] = cur + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Counter returns the int64 counter under key, or 0.
func (mr *MetricsRegistry) Counter(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	v, _ := mr.metrics[key].(int64)
	return v
}

// Updated reports when the registry last changed.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}
