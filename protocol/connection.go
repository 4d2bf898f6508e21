// File: protocol/connection.go
// Package protocol implements the core WebSocket connection handling.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection owns one socket for its lifetime: it performs the handshake,
// runs the receive loop, reassembles fragments and serialises writes.

package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/wsengine/api"
	"github.com/momentics/wsengine/pool"
)

const (
	readBufferSize    = 4096
	closeFrameTimeout = time.Second
)

// frameBuffers backs outbound frame encoding; write is synchronous so a
// buffer can be returned as soon as it was put on the wire.
var frameBuffers = pool.NewBytePool(512, 64<<10)

// ConnConfig carries the settings a Connection captures at construction.
// Zero durations disable the corresponding deadline.
type ConnConfig struct {
	Events           EventListener
	Logger           *slog.Logger
	Metrics          api.Metrics
	MaxPayload       int64
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

// Connection is a server-side WebSocket session over one socket.
type Connection struct {
	sock api.Socket
	br   *bufio.Reader
	cfg  ConnConfig
	log  *slog.Logger

	// published once the upgrade request was parsed
	req atomic.Pointer[Request]

	state     atomic.Int32
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}

	mu        sync.RWMutex
	err       error
	onMessage func(text string)
	onBinary  func(data []byte)
	onClose   func()

	// touched only by the receive loop
	pending *pendingFragments

	bytesReceived    atomic.Int64
	bytesSent        atomic.Int64
	framesReceived   atomic.Int64
	framesSent       atomic.Int64
	messagesReceived atomic.Int64
}

// NewConnection wraps an accepted socket. Nothing is read until Serve runs.
func NewConnection(sock api.Socket, cfg ConnConfig) *Connection {
	if cfg.Events == nil {
		cfg.Events = ListenerFuncs{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Connection{
		sock:    sock,
		br:      bufio.NewReaderSize(sock, readBufferSize),
		cfg:     cfg,
		done:    make(chan struct{}),
		pending: newPendingFragments(),
	}
	c.log = cfg.Logger.With("remote", addrString(sock))
	c.onMessage = func(text string) { c.cfg.Events.OnMessage(c, text) }
	c.onClose = func() { c.cfg.Events.OnClose(c) }
	c.state.Store(int32(api.StateHandshaking))
	return c
}

// Serve performs the handshake and then runs the receive loop until the
// connection closes. It returns the terminal cause.
func (c *Connection) Serve() error {
	if err := c.handshake(); err != nil {
		c.log.Warn("handshake failed", "err", err)
		c.shutdown(err, 0)
		return err
	}
	if !c.state.CompareAndSwap(int32(api.StateHandshaking), int32(api.StateOpen)) {
		return c.Err()
	}
	defer c.finish()

	if err := c.open(); err != nil {
		c.log.Warn("connection rejected by onOpen", "err", err)
		c.shutdown(err, CloseInternalServerErr)
		return err
	}
	return c.readLoop()
}

func (c *Connection) handshake() error {
	if t := c.cfg.HandshakeTimeout; t > 0 {
		_ = c.sock.SetReadDeadline(time.Now().Add(t))
		defer c.sock.SetReadDeadline(time.Time{})
	}
	req, err := ReadHandshake(c.br)
	if err != nil {
		return err
	}
	c.req.Store(req)
	c.log = c.log.With("path", req.Path)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if t := c.cfg.WriteTimeout; t > 0 {
		_ = c.sock.SetWriteDeadline(time.Now().Add(t))
	}
	if err := WriteHandshakeResponse(c.sock, ComputeAcceptKey(req.Key())); err != nil {
		return api.NewIOError("write handshake response", err)
	}
	return nil
}

func (c *Connection) open() error {
	var openErr error
	if err := c.invoke("onOpen", func() { openErr = c.cfg.Events.OnOpen(c) }); err != nil {
		return err
	}
	if openErr != nil {
		return api.NewCallbackError("onOpen", fmt.Errorf("%w: %w", ErrOpenCallbackFailed, openErr))
	}
	return nil
}

// readLoop decodes frames and dispatches them by opcode. Callbacks run
// inline so messages are delivered in arrival order.
func (c *Connection) readLoop() error {
	for {
		if t := c.cfg.ReadTimeout; t > 0 {
			_ = c.sock.SetReadDeadline(time.Now().Add(t))
		}
		f, err := ReadFrame(c.br, c.cfg.MaxPayload)
		if err != nil {
			return c.fail(err)
		}
		c.framesReceived.Add(1)
		c.bytesReceived.Add(int64(len(f.Payload)))
		c.count("frames.in", 1)

		switch f.Opcode {
		case OpcodeText, OpcodeBinary, OpcodeContinuation:
			if err := c.handleData(f); err != nil {
				return c.fail(err)
			}
		case OpcodePing:
			if err := c.writeFrame(OpcodePong, f.Payload); err != nil {
				return c.fail(err)
			}
		case OpcodeClose:
			c.log.Debug("close frame received", "len", len(f.Payload))
			c.replyClose(f.Payload)
			c.shutdown(ErrClosedByPeer, 0)
			return c.Err()
		default:
			c.log.Debug("ignoring frame", "opcode", f.Opcode, "len", len(f.Payload))
		}
	}
}

func (c *Connection) handleData(f *Frame) error {
	switch open := c.pending.length() > 0; {
	case f.Opcode == OpcodeContinuation && !open:
		c.log.Debug("continuation without a started message", "fin", f.Fin, "len", len(f.Payload))
	case f.Opcode != OpcodeContinuation && open:
		c.log.Debug("data frame inside a fragmented message", "opcode", f.Opcode,
			"fin", f.Fin, "fragments", c.pending.length())
	}
	if f.Fin && f.Opcode != OpcodeContinuation {
		c.deliver(f.Opcode, f.Payload)
		return nil
	}
	c.pending.push(f.Opcode, f.Payload)
	limit := c.cfg.MaxPayload
	if limit <= 0 {
		limit = MaxFramePayload
	}
	if c.pending.bytes() > limit {
		return framingErrorf(ErrPayloadTooLarge, "message of %d bytes in %d fragments",
			c.pending.bytes(), c.pending.length())
	}
	if f.Fin {
		op, data := c.pending.drain()
		c.deliver(op, data)
	}
	return nil
}

// deliver hands a completed message to the registered callback. Binary
// messages go to the OnBinary handler when one is set and are decoded as
// text otherwise.
func (c *Connection) deliver(op Opcode, payload []byte) {
	c.messagesReceived.Add(1)
	c.count("messages.in", 1)

	c.mu.RLock()
	onMessage, onBinary := c.onMessage, c.onBinary
	c.mu.RUnlock()

	if op == OpcodeBinary && onBinary != nil {
		_ = c.invoke("onBinary", func() { onBinary(payload) })
		return
	}
	if onMessage != nil {
		text := string(payload)
		_ = c.invoke("onMessage", func() { onMessage(text) })
	}
}

// invoke runs a user callback and converts a panic into a CallbackError.
func (c *Connection) invoke(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = api.NewCallbackError(name, fmt.Errorf("panic: %v", r))
			c.log.Error("callback panicked", "callback", name, "panic", r)
		}
	}()
	fn()
	return nil
}

func (c *Connection) replyClose(payload []byte) {
	var echo []byte
	if len(payload) >= 2 {
		echo = payload[:2]
	}
	_ = c.write(EncodeFrame(OpcodeClose, echo), len(echo))
}

// fail records a receive-side failure and closes the connection.
func (c *Connection) fail(err error) error {
	if c.State() == api.StateClosed {
		<-c.done
		return c.Err()
	}
	code := 0
	var fe *api.FramingError
	switch {
	case errors.As(err, &fe):
		code = CloseProtocolError
		if errors.Is(err, ErrPayloadTooLarge) {
			code = CloseMessageTooBig
		}
		c.log.Warn("framing error", "err", err)
	case errors.Is(err, io.EOF):
		c.log.Debug("peer closed connection")
	default:
		c.log.Info("connection failed", "err", err)
	}
	c.shutdown(err, code)
	return c.Err()
}

// shutdown moves the connection to CLOSED once. closeCode != 0 sends a
// best-effort CLOSE frame first when the connection was open.
func (c *Connection) shutdown(cause error, closeCode int) {
	c.closeOnce.Do(func() {
		prev := api.ConnState(c.state.Swap(int32(api.StateClosed)))
		if closeCode != 0 && prev == api.StateOpen {
			c.writeCloseFrame(closeCode)
		}
		c.mu.Lock()
		c.err = cause
		c.mu.Unlock()
		_ = c.sock.Close()
		close(c.done)
	})
}

func (c *Connection) writeCloseFrame(code int) {
	// A sender blocked on a dead peer holds the lock; skip rather than hang.
	if !c.writeMu.TryLock() {
		return
	}
	defer c.writeMu.Unlock()
	var payload [2]byte
	binary.BigEndian.PutUint16(payload[:], uint16(code))
	_ = c.sock.SetWriteDeadline(time.Now().Add(closeFrameTimeout))
	_ = WriteFrame(c.sock, OpcodeClose, payload[:])
}

// finish runs on the receive goroutine after an opened connection ends.
func (c *Connection) finish() {
	c.pending.reset()
	c.shutdown(api.ErrClosed, 0)
	c.mu.RLock()
	onClose := c.onClose
	c.mu.RUnlock()
	if onClose != nil {
		_ = c.invoke("onClose", onClose)
	}
}

func (c *Connection) writeFrame(op Opcode, payload []byte) error {
	if c.State() != api.StateOpen {
		return api.ErrClosed
	}
	buf := frameBuffers.GetBuffer()
	*buf = AppendFrame(*buf, op, payload)
	err := c.write(*buf, len(payload))
	frameBuffers.PutBuffer(buf)
	if err != nil {
		ioe := api.NewIOError("write frame", err)
		c.shutdown(ioe, 0)
		return ioe
	}
	c.count("frames.out", 1)
	return nil
}

// write puts one fully encoded frame on the wire under the write lock so
// frames from concurrent senders never interleave.
func (c *Connection) write(frame []byte, payloadLen int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if t := c.cfg.WriteTimeout; t > 0 {
		_ = c.sock.SetWriteDeadline(time.Now().Add(t))
	}
	if _, err := c.sock.Write(frame); err != nil {
		return err
	}
	c.framesSent.Add(1)
	c.bytesSent.Add(int64(payloadLen))
	return nil
}

func (c *Connection) count(key string, delta int64) {
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.Add(key, delta)
	}
}

// Send writes text as a single TEXT frame. Safe for concurrent use.
func (c *Connection) Send(text string) error {
	return c.writeFrame(OpcodeText, []byte(text))
}

// SendBinary writes data as a single BINARY frame. Safe for concurrent use.
func (c *Connection) SendBinary(data []byte) error {
	return c.writeFrame(OpcodeBinary, data)
}

// Ping sends a PING control frame; payload is limited to 125 bytes.
func (c *Connection) Ping(payload []byte) error {
	if len(payload) > MaxControlPayloadLen {
		return fmt.Errorf("%w: %w", api.ErrInvalidArgument, ErrControlTooLarge)
	}
	return c.writeFrame(OpcodePing, payload)
}

// Close sends a normal-closure CLOSE frame when possible and closes the
// socket. The receive loop then exits and fires onClose. Idempotent.
func (c *Connection) Close() error {
	c.shutdown(api.ErrClosed, CloseNormalClosure)
	return nil
}

// OnMessage replaces the text message callback. Usually called from
// the listener's onOpen hook.
func (c *Connection) OnMessage(fn func(text string)) *Connection {
	c.mu.Lock()
	c.onMessage = fn
	c.mu.Unlock()
	return c
}

// OnBinary registers a callback for messages that started as BINARY.
func (c *Connection) OnBinary(fn func(data []byte)) *Connection {
	c.mu.Lock()
	c.onBinary = fn
	c.mu.Unlock()
	return c
}

// OnClose replaces the close callback.
func (c *Connection) OnClose(fn func()) *Connection {
	c.mu.Lock()
	c.onClose = fn
	c.mu.Unlock()
	return c
}

// Header returns a handshake request header, matching the exact name first
// and falling back to a case-insensitive match.
func (c *Connection) Header(name string) (string, bool) {
	req := c.request()
	if req == nil {
		return "", false
	}
	return lookupHeader(req.Header, name)
}

// Headers returns a copy of all handshake request headers.
func (c *Connection) Headers() map[string]string {
	out := make(map[string]string)
	if req := c.request(); req != nil {
		for k, v := range req.Header {
			out[k] = v
		}
	}
	return out
}

// Cookie returns the value of the named cookie sent with the handshake.
func (c *Connection) Cookie(name string) (string, bool) {
	req := c.request()
	if req == nil {
		return "", false
	}
	return lookupCookie(req.Header, name)
}

// Path returns the request path of the upgrade request.
func (c *Connection) Path() string {
	if req := c.request(); req != nil {
		return req.Path
	}
	return ""
}

// request returns the parsed upgrade request, or nil before the handshake
// finished.
func (c *Connection) request() *Request {
	if c.State() == api.StateHandshaking {
		return nil
	}
	return c.req.Load()
}

// RemoteAddr returns the peer address as reported by the socket.
func (c *Connection) RemoteAddr() string { return addrString(c.sock) }

// State returns the current lifecycle state.
func (c *Connection) State() api.ConnState { return api.ConnState(c.state.Load()) }

// Done returns a channel closed once the connection is CLOSED.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Err returns the terminal cause, or nil while the connection is alive.
func (c *Connection) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Stats returns a snapshot of the traffic counters.
func (c *Connection) Stats() api.ConnStats {
	return api.ConnStats{
		BytesReceived:    c.bytesReceived.Load(),
		BytesSent:        c.bytesSent.Load(),
		FramesReceived:   c.framesReceived.Load(),
		FramesSent:       c.framesSent.Load(),
		MessagesReceived: c.messagesReceived.Load(),
	}
}

func addrString(sock api.Socket) string {
	if a := sock.RemoteAddr(); a != nil {
		return a.String()
	}
	return "unknown"
}
