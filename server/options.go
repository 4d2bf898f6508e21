// File: server/options.go
// Package server defines functional options for the Listener.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"crypto/tls"
	"log/slog"
	"net"

	"github.com/momentics/wsengine/api"
	"github.com/momentics/wsengine/protocol"
)

// Option customizes listener initialization.
type Option func(*Listener)

// WithExecutor runs the accept loop and every connection task on exec
// instead of the built-in goroutine executor.
func WithExecutor(exec api.Executor) Option {
	return func(l *Listener) {
		l.exec = exec
	}
}

// WithLogger sets the logger used by the listener and its connections.
func WithLogger(log *slog.Logger) Option {
	return func(l *Listener) {
		l.log = log
	}
}

// WithTLS serves TLS with cfg, overriding Config.TLS.
func WithTLS(cfg *tls.Config) Option {
	return func(l *Listener) {
		l.cfg.TLS = cfg
	}
}

// WithMetrics sends listener and connection counters to m.
func WithMetrics(m api.Metrics) Option {
	return func(l *Listener) {
		l.metrics = m
	}
}

// WithEventListener receives the events of every connection, in addition
// to the OnOpen hook.
func WithEventListener(ev protocol.EventListener) Option {
	return func(l *Listener) {
		l.events = ev
	}
}

// WithNetListener serves on an already bound socket instead of opening
// Config.ListenAddr. TLS settings are not applied to ln.
func WithNetListener(ln net.Listener) Option {
	return func(l *Listener) {
		l.ln = ln
	}
}
