// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

// ConnState enumerates the lifecycle of a WebSocket connection.
// Transitions only move forward: Handshaking -> Open -> Closed.
type ConnState int32

const (
	StateHandshaking ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnStats is a snapshot of per-connection traffic counters.
type ConnStats struct {
	BytesReceived    int64
	BytesSent        int64
	FramesReceived   int64
	FramesSent       int64
	MessagesReceived int64
}
