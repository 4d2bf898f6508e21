// File: protocol/handshake.go
// Package protocol
// Upgrade request parsing. The request is read line by line from the
// connection's buffered reader so that frame bytes a client pipelines after
// the blank line stay buffered for the receive loop.
package protocol

import (
	"bufio"
	"encoding/base64"
	"strings"
)

const (
	MaxHandshakeHeadersSize = 8192
	HeaderSecWebSocketKey   = "Sec-WebSocket-Key"
	HeaderCookie            = "Cookie"
)

// Request is the parsed upgrade request. It is never mutated after
// ReadHandshake returns, so concurrent readers need no locking.
type Request struct {
	Method string
	Path   string
	Proto  string
	Header map[string]string
}

// Key returns the client's Sec-WebSocket-Key.
func (r *Request) Key() string {
	v, _ := lookupHeader(r.Header, HeaderSecWebSocketKey)
	return v
}

// ReadHandshake reads and validates the upgrade request from br.
// All failures are *api.HandshakeError.
func ReadHandshake(br *bufio.Reader) (*Request, error) {
	// ReadSlice hands back at most one buffer per call, so the limit holds
	// even when a line never ends.
	total := 0
	readLine := func() (string, error) {
		var line []byte
		for {
			frag, err := br.ReadSlice('\n')
			total += len(frag)
			if total > MaxHandshakeHeadersSize {
				return "", handshakeErrorf(ErrHeadersTooLarge, "more than %d bytes", MaxHandshakeHeadersSize)
			}
			line = append(line, frag...)
			if err == bufio.ErrBufferFull {
				continue
			}
			if err != nil {
				return "", handshakeErrorf(err, "read request")
			}
			break
		}
		return strings.TrimSuffix(strings.TrimSuffix(string(line), "\n"), "\r"), nil
	}

	first, err := readLine()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(first, "GET ") {
		return nil, handshakeErrorf(ErrNotUpgrade, "request line %q", truncate(first, 64))
	}
	req := &Request{Method: "GET", Header: make(map[string]string)}
	parts := strings.Fields(first)
	if len(parts) > 1 {
		req.Path = parts[1]
	}
	if len(parts) > 2 {
		req.Proto = parts[2]
	}

	for {
		line, err := readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, handshakeErrorf(ErrMalformedHeader, "%q", truncate(line, 64))
		}
		req.Header[line[:i]] = strings.TrimSpace(line[i+1:])
	}

	key := req.Key()
	if key == "" {
		return nil, handshakeErrorf(ErrMissingKey, "path %q", req.Path)
	}
	if raw, err := base64.StdEncoding.DecodeString(key); err != nil || len(raw) != 16 {
		return nil, handshakeErrorf(ErrInvalidKey, "%q", truncate(key, 32))
	}
	return req, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
