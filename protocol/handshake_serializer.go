// File: protocol/handshake_serializer.go
// Package protocol
// Serialisation of the 101 handshake response.
package protocol

import (
	"bufio"
	"io"
)

// WriteHandshakeResponse writes the 101 response carrying accept to w and
// flushes it. Header order and spelling are fixed.
func WriteHandshakeResponse(w io.Writer, accept string) error {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriterSize(w, 256)
	}
	bw.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	bw.WriteString("Connection: Upgrade\r\n")
	bw.WriteString("Upgrade: websocket\r\n")
	bw.WriteString("Sec-WebSocket-Accept: ")
	bw.WriteString(accept)
	bw.WriteString("\r\n\r\n")
	return bw.Flush()
}
