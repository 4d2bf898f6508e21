// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory reuse for the WebSocket engine: a generic sync.Pool wrapper and
// the byte buffer pool connections encode outbound frames into.
package pool
