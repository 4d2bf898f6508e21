// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the byte-stream socket abstraction a Connection owns. Any
// net.Conn (plain TCP, *tls.Conn, net.Pipe) satisfies it.

package api

import (
	"io"
	"net"
	"time"
)

// Socket is a connect-accepted, readable/writable/closeable byte stream.
// Closing it unblocks pending reads and writes.
type Socket interface {
	io.ReadWriteCloser

	// RemoteAddr returns the peer address.
	RemoteAddr() net.Addr

	// SetReadDeadline bounds the next reads; the zero time disables it.
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline bounds the next writes; the zero time disables it.
	SetWriteDeadline(t time.Time) error
}
