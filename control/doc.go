// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the WebSocket engine.
//
// Provides concurrent-safe primitives including:
//   - MetricsRegistry, the default api.Metrics sink for listener counters
//   - DebugProbes, named state probes dumped on demand
//   - Platform probes (CPU count, kernel, SIMD features)
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
