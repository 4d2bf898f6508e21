// File: protocol/native_handshake.go
// Package protocol provides the accept-key computation and header helpers
// used by the handshake without going through net/http.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"strings"
)

// WebSocketGUID is appended to the client key before hashing (RFC 6455 §1.3).
const WebSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// ComputeAcceptKey computes the Sec-WebSocket-Accept value from the client's key.
func ComputeAcceptKey(clientKey string) string {
	hash := sha1.Sum([]byte(clientKey + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// lookupHeader finds name by exact key first, then case-insensitively.
func lookupHeader(h map[string]string, name string) (string, bool) {
	if v, ok := h[name]; ok {
		return v, true
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// lookupCookie parses the Cookie header and returns the named value.
func lookupCookie(h map[string]string, name string) (string, bool) {
	line, ok := lookupHeader(h, HeaderCookie)
	if !ok {
		return "", false
	}
	cookies, err := http.ParseCookie(line)
	if err != nil {
		return "", false
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
