// File: server/listener.go
// Package server implements the WebSocket listener: it binds the socket,
// runs the accept loop and gives every accepted socket its own Connection.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/momentics/wsengine/api"
	"github.com/momentics/wsengine/control"
	"github.com/momentics/wsengine/internal/concurrency"
	"github.com/momentics/wsengine/protocol"
	"github.com/momentics/wsengine/transport/tcp"
)

// ErrAlreadyRunning is returned by Start on a listener that was started.
var ErrAlreadyRunning = errors.New("server already running")

const maxAcceptDelay = time.Second

var _ api.GracefulShutdown = (*Listener)(nil)

// Listener accepts WebSocket connections. A failing connection never
// affects the accept loop or its siblings.
type Listener struct {
	cfg     *Config
	log     *slog.Logger
	exec    api.Executor
	ownExec *concurrency.Executor
	metrics api.Metrics
	probes  *control.DebugProbes
	events  protocol.EventListener

	mu         sync.Mutex
	ln         net.Listener
	onOpen     func(c *protocol.Connection) error
	conns      map[*protocol.Connection]struct{}
	started    bool
	closed     bool
	closing    chan struct{}
	acceptDone chan struct{}
	wg         sync.WaitGroup
}

// NewListener builds a Listener; nothing is bound until Start.
// A nil cfg uses DefaultConfig.
func NewListener(cfg *Config, opts ...Option) *Listener {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Listener{
		cfg:        cfg.clone(),
		probes:     control.NewDebugProbes(),
		conns:      make(map[*protocol.Connection]struct{}),
		closing:    make(chan struct{}),
		acceptDone: make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	if l.metrics == nil {
		l.metrics = control.NewMetricsRegistry()
	}
	if l.events == nil {
		l.events = protocol.ListenerFuncs{}
	}
	if l.exec == nil {
		limit := 0
		if l.cfg.MaxConnections > 0 {
			limit = l.cfg.MaxConnections + 1 // accept loop
		}
		l.ownExec = concurrency.NewExecutor(limit, l.log)
		l.exec = l.ownExec
	}
	l.registerProbes()
	return l
}

func (l *Listener) registerProbes() {
	l.probes.RegisterProbe("listener.addr", func() any {
		if a := l.Addr(); a != nil {
			return a.String()
		}
		return ""
	})
	l.probes.RegisterProbe("listener.active_connections", func() any {
		return l.ConnectionCount()
	})
	if l.ownExec != nil {
		l.probes.RegisterProbe("executor.stats", func() any {
			return l.ownExec.Stats()
		})
	}
	control.RegisterPlatformProbes(l.probes)
}

// OnOpen sets the hook run after each handshake and before the first
// frame is read; attach per-connection handlers here. A non-nil error
// aborts that connection.
func (l *Listener) OnOpen(fn func(c *protocol.Connection) error) *Listener {
	l.mu.Lock()
	l.onOpen = fn
	l.mu.Unlock()
	return l
}

// Start binds the socket (unless one was supplied) and launches the accept
// loop on the executor. ctx only bounds the bind. The executor must run
// tasks asynchronously.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		return api.ErrListenerClosed
	case l.started:
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	ln := l.ln
	if ln == nil {
		var err error
		ln, err = tcp.Listen(ctx, &tcp.ListenerConfig{
			Addr:      l.cfg.ListenAddr,
			TLS:       l.cfg.TLS,
			ReusePort: l.cfg.ReusePort,
			KeepAlive: l.cfg.KeepAlive,
		})
		if err != nil {
			l.mu.Unlock()
			return err
		}
	}
	l.ln = ln
	l.started = true
	l.mu.Unlock()

	if err := l.exec.Submit(func() { l.acceptLoop(ln) }); err != nil {
		close(l.acceptDone)
		ln.Close()
		return fmt.Errorf("start accept loop: %w", err)
	}
	l.log.Info("listening", "addr", ln.Addr().String(), "tls", l.cfg.TLS != nil)
	return nil
}

// Serve starts the listener and blocks until ctx is done, then shuts it
// down within Config.ShutdownTimeout. It returns api.ErrListenerClosed when
// Close was called from elsewhere.
func (l *Listener) Serve(ctx context.Context) error {
	if err := l.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return l.Close()
	case <-l.closing:
		return api.ErrListenerClosed
	}
}

func (l *Listener) acceptLoop(ln net.Listener) {
	defer close(l.acceptDone)
	if len(l.cfg.AcceptCPUs) > 0 {
		if err := tcp.PinAcceptThread(l.cfg.AcceptCPUs); err != nil {
			l.log.Warn("accept loop not pinned", "err", err)
		} else {
			defer runtime.UnlockOSThread()
		}
	}

	var delay time.Duration
	for {
		sock, err := ln.Accept()
		if err != nil {
			if l.isClosed() || errors.Is(err, net.ErrClosed) {
				return
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			l.log.Warn("accept failed", "err", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-l.closing:
				return
			}
			continue
		}
		delay = 0
		l.handle(sock)
	}
}

// handle wraps an accepted socket and hands it to the executor.
func (l *Listener) handle(sock net.Conn) {
	conn := protocol.NewConnection(sock, protocol.ConnConfig{
		Events:           connEvents{l},
		Logger:           l.log,
		Metrics:          l.metrics,
		MaxPayload:       l.cfg.MaxPayload,
		HandshakeTimeout: l.cfg.HandshakeTimeout,
		ReadTimeout:      l.cfg.ReadTimeout,
		WriteTimeout:     l.cfg.WriteTimeout,
	})
	if !l.track(conn) {
		sock.Close()
		return
	}
	l.metrics.Add(control.MetricConnectionsAccepted, 1)
	l.metrics.Add(control.MetricConnectionsActive, 1)

	if err := l.exec.Submit(func() { l.serveConn(conn) }); err != nil {
		l.untrack(conn)
		l.metrics.Add(control.MetricConnectionsActive, -1)
		l.metrics.Add(control.MetricConnectionsRejected, 1)
		l.log.Warn("connection rejected", "remote", conn.RemoteAddr(), "err", err)
		sock.Close()
	}
}

func (l *Listener) serveConn(conn *protocol.Connection) {
	defer func() {
		l.untrack(conn)
		l.metrics.Add(control.MetricConnectionsActive, -1)
	}()
	err := conn.Serve()
	var he *api.HandshakeError
	if errors.As(err, &he) && !l.isClosed() {
		l.metrics.Add(control.MetricHandshakeFailed, 1)
	}
	l.log.Debug("connection finished", "remote", conn.RemoteAddr(), "err", err)
}

func (l *Listener) track(c *protocol.Connection) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.conns[c] = struct{}{}
	l.wg.Add(1)
	return true
}

func (l *Listener) untrack(c *protocol.Connection) {
	l.mu.Lock()
	_, ok := l.conns[c]
	delete(l.conns, c)
	l.mu.Unlock()
	if ok {
		l.wg.Done()
	}
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Addr returns the bound address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Connections returns a snapshot of the live connections.
func (l *Listener) Connections() []*protocol.Connection {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*protocol.Connection, 0, len(l.conns))
	for c := range l.conns {
		out = append(out, c)
	}
	return out
}

// ConnectionCount returns the number of live connections.
func (l *Listener) ConnectionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// Broadcast sends text to every open connection and reports how many
// sends succeeded. Failures are joined into the returned error.
func (l *Listener) Broadcast(text string) (int, error) {
	var (
		sent int
		errs []error
	)
	for _, c := range l.Connections() {
		if c.State() != api.StateOpen {
			continue
		}
		if err := c.Send(text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.RemoteAddr(), err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// Metrics returns the counter sink shared by the listener's connections.
func (l *Listener) Metrics() api.Metrics { return l.metrics }

// Debug returns the listener's probe registry.
func (l *Listener) Debug() api.Debug { return l.probes }

// Close shuts the listener down within Config.ShutdownTimeout.
func (l *Listener) Close() error {
	timeout := l.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return l.Shutdown(ctx)
}

// Shutdown stops accepting, closes every live connection so each fires
// onClose, and waits for their tasks until ctx is done. Later calls only
// wait.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	first := !l.closed
	l.closed = true
	ln, started := l.ln, l.started
	conns := make([]*protocol.Connection, 0, len(l.conns))
	for c := range l.conns {
		conns = append(conns, c)
	}
	if first {
		close(l.closing)
	}
	l.mu.Unlock()

	var errs []error
	if first {
		if ln != nil {
			if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				errs = append(errs, err)
			}
		}
		for _, c := range conns {
			go c.Close()
		}
	}

	done := make(chan struct{})
	go func() {
		if started {
			<-l.acceptDone
		}
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("%w: %d connections still open: %w", api.ErrOperationTimeout, l.ConnectionCount(), ctx.Err())
	}

	if l.ownExec != nil {
		l.ownExec.Close()
		if err := l.ownExec.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if first {
		l.log.Info("listener closed", "connections_closed", len(conns))
	}
	return errors.Join(errs...)
}

// connEvents forwards connection events to the listener's hooks.
type connEvents struct{ l *Listener }

func (e connEvents) OnOpen(c *protocol.Connection) error {
	if err := e.l.events.OnOpen(c); err != nil {
		return err
	}
	e.l.mu.Lock()
	fn := e.l.onOpen
	e.l.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(c)
}

func (e connEvents) OnMessage(c *protocol.Connection, text string) {
	e.l.events.OnMessage(c, text)
}

func (e connEvents) OnClose(c *protocol.Connection) {
	e.l.events.OnClose(c)
}
