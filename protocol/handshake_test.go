package protocol_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/momentics/wsengine/api"
	"github.com/momentics/wsengine/protocol"
)

const sampleKey = "dGhlIHNhbXBsZSBub25jZQ=="

func upgradeRequest(path string, extra ...string) string {
	var b strings.Builder
	b.WriteString("GET " + path + " HTTP/1.1\r\n")
	b.WriteString("Host: localhost:9000\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("Sec-WebSocket-Key: " + sampleKey + "\r\n")
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	for _, h := range extra {
		b.WriteString(h + "\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}

func TestComputeAcceptKey(t *testing.T) {
	if got := protocol.ComputeAcceptKey(sampleKey); got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Fatalf("ComputeAcceptKey = %q", got)
	}
}

func TestWriteHandshakeResponseIsExact(t *testing.T) {
	var buf bytes.Buffer
	if err := protocol.WriteHandshakeResponse(&buf, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="); err != nil {
		t.Fatal(err)
	}
	want := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Connection: Upgrade\r\n" +
		"Upgrade: websocket\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n"
	if buf.String() != want {
		t.Fatalf("response mismatch:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestReadHandshake(t *testing.T) {
	br := bufio.NewReader(strings.NewReader(upgradeRequest("/chat?room=1", "X-Custom:  padded value  ")))
	req, err := protocol.ReadHandshake(br)
	if err != nil {
		t.Fatalf("ReadHandshake failed: %v", err)
	}
	if req.Method != "GET" || req.Path != "/chat?room=1" || req.Proto != "HTTP/1.1" {
		t.Errorf("request line parsed as %q %q %q", req.Method, req.Path, req.Proto)
	}
	if req.Key() != sampleKey {
		t.Errorf("Key() = %q", req.Key())
	}
	if got := req.Header["X-Custom"]; got != "padded value" {
		t.Errorf("X-Custom = %q, want trimmed value", got)
	}
}

func TestReadHandshakeSplitsAtFirstColon(t *testing.T) {
	br := bufio.NewReader(strings.NewReader(upgradeRequest("/", "Origin: http://example.com:8080")))
	req, err := protocol.ReadHandshake(br)
	if err != nil {
		t.Fatal(err)
	}
	if got := req.Header["Origin"]; got != "http://example.com:8080" {
		t.Fatalf("Origin = %q", got)
	}
}

func TestReadHandshakeKeepsPipelinedBytes(t *testing.T) {
	frame := protocol.AppendMaskedFrame(nil, protocol.OpcodeText, true, []byte("early"), testKey)
	br := bufio.NewReader(strings.NewReader(upgradeRequest("/") + string(frame)))
	if _, err := protocol.ReadHandshake(br); err != nil {
		t.Fatal(err)
	}
	f, err := protocol.ReadFrame(br, 0)
	if err != nil {
		t.Fatalf("frame after handshake: %v", err)
	}
	if string(f.Payload) != "early" {
		t.Fatalf("payload = %q", f.Payload)
	}
}

func TestReadHandshakeFailures(t *testing.T) {
	cases := []struct {
		name  string
		input string
		cause error
	}{
		{"post", "POST / HTTP/1.1\r\nSec-WebSocket-Key: " + sampleKey + "\r\n\r\n", protocol.ErrNotUpgrade},
		{"missing key", "GET / HTTP/1.1\r\nHost: x\r\n\r\n", protocol.ErrMissingKey},
		{"bad key", "GET / HTTP/1.1\r\nSec-WebSocket-Key: c2hvcnQ=\r\n\r\n", protocol.ErrInvalidKey},
		{"no colon", "GET / HTTP/1.1\r\nthis is not a header\r\n\r\n", protocol.ErrMalformedHeader},
		{"empty name", "GET / HTTP/1.1\r\n: value\r\n\r\n", protocol.ErrMalformedHeader},
		{"too large", "GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("a", protocol.MaxHandshakeHeadersSize) + "\r\n\r\n", protocol.ErrHeadersTooLarge},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := protocol.ReadHandshake(bufio.NewReader(strings.NewReader(c.input)))
			var he *api.HandshakeError
			if !errors.As(err, &he) {
				t.Fatalf("err = %v, want *api.HandshakeError", err)
			}
			if !errors.Is(err, c.cause) {
				t.Fatalf("err = %v, want cause %v", err, c.cause)
			}
		})
	}
}

func TestReadHandshakeTruncated(t *testing.T) {
	_, err := protocol.ReadHandshake(bufio.NewReader(strings.NewReader("GET / HTTP/1.1\r\nHost: x\r\n")))
	var he *api.HandshakeError
	if !errors.As(err, &he) {
		t.Fatalf("err = %v, want *api.HandshakeError", err)
	}
}

// endlessReader yields the same byte forever and counts what was taken.
type endlessReader struct {
	b    byte
	read int
}

func (r *endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
	}
	r.read += len(p)
	return len(p), nil
}

func TestReadHandshakeUnterminatedLineIsBounded(t *testing.T) {
	body := &endlessReader{b: 'a'}
	src := io.MultiReader(strings.NewReader("GET / HTTP/1.1\r\nX-Big: "), body)
	_, err := protocol.ReadHandshake(bufio.NewReader(src))
	if !errors.Is(err, protocol.ErrHeadersTooLarge) {
		t.Fatalf("err = %v, want %v", err, protocol.ErrHeadersTooLarge)
	}
	if body.read > 2*protocol.MaxHandshakeHeadersSize {
		t.Fatalf("consumed %d bytes before rejecting, limit is %d", body.read, protocol.MaxHandshakeHeadersSize)
	}
}
