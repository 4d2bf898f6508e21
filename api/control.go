// File: api/control.go
// Package api defines the runtime metrics contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Metrics receives listener and connection counters.
type Metrics interface {
	// Add increments a counter by delta (delta may be negative).
	Add(key string, delta int64)
	// Set stores an arbitrary gauge value.
	Set(key string, value any)
	// GetSnapshot returns a copy of all values.
	GetSnapshot() map[string]any
}
