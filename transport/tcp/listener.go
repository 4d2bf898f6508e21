// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp provides the listening-socket factory used by the server
// listener: plain or TLS-wrapped TCP with optional socket options and
// accept-thread CPU affinity.

package tcp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"runtime"
	"time"
)

// ListenerConfig holds configuration for the TCP listener.
type ListenerConfig struct {
	Addr      string        // TCP address to bind (e.g., ":9000")
	TLS       *tls.Config   // Wraps accepted sockets in TLS when non-nil
	ReusePort bool          // Sets SO_REUSEPORT where the platform supports it
	KeepAlive time.Duration // TCP keep-alive period; 0 uses the Go default, negative disables
}

// Listen opens the listening socket described by cfg. Accepted sockets are
// *net.TCPConn, or *tls.Conn when cfg.TLS is set; the TLS handshake runs
// lazily on the first read so it never blocks the accept loop.
func Listen(ctx context.Context, cfg *ListenerConfig) (net.Listener, error) {
	lc := net.ListenConfig{
		KeepAlive: cfg.KeepAlive,
		Control:   socketControl(cfg.ReusePort),
	}
	ln, err := lc.Listen(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("tcp listen %s: %w", cfg.Addr, err)
	}
	if cfg.TLS != nil {
		ln = tls.NewListener(ln, cfg.TLS)
	}
	return ln, nil
}

// PinAcceptThread locks the calling goroutine to its OS thread and pins the
// thread to the first CPU in cpus. An empty list is a no-op.
func PinAcceptThread(cpus []int) error {
	if len(cpus) == 0 {
		return nil
	}
	runtime.LockOSThread()
	if err := setCPUAffinity(cpus[0]); err != nil {
		runtime.UnlockOSThread()
		return fmt.Errorf("pin accept thread to cpu %d: %w", cpus[0], err)
	}
	return nil
}
