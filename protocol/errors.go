// File: protocol/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"errors"
	"fmt"

	"github.com/momentics/wsengine/api"
)

// Causes carried inside api.HandshakeError and api.FramingError values.
var (
	ErrNotUpgrade         = errors.New("not an upgrade request")
	ErrMalformedHeader    = errors.New("malformed header line")
	ErrHeadersTooLarge    = errors.New("handshake headers too large")
	ErrMissingKey         = errors.New("missing Sec-WebSocket-Key header")
	ErrInvalidKey         = errors.New("invalid Sec-WebSocket-Key header")
	ErrReservedBits       = errors.New("reserved bits must be zero")
	ErrUnknownOpcode      = errors.New("unknown opcode")
	ErrPayloadTooLarge    = errors.New("payload exceeds supported size")
	ErrShortRead          = errors.New("peer closed before frame completed")
	ErrControlTooLarge    = errors.New("control payload longer than 125 bytes")
	ErrClosedByPeer       = errors.New("close frame received")
	ErrOpenCallbackFailed = errors.New("onOpen rejected the connection")
)

func handshakeErrorf(cause error, format string, args ...any) *api.HandshakeError {
	return api.NewHandshakeError(fmt.Sprintf(format, args...), cause)
}

func framingErrorf(cause error, format string, args ...any) *api.FramingError {
	return api.NewFramingError(fmt.Sprintf(format, args...), cause)
}
