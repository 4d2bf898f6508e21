package server

import (
	"crypto/tls"
	"time"
)

// Config holds all server-side configuration parameters.
type Config struct {
	ListenAddr       string        // TCP bind address, e.g. ":9000"
	TLS              *tls.Config   // serve wss:// when non-nil
	MaxPayload       int64         // per-frame and per-message limit (0 = protocol maximum)
	MaxConnections   int           // concurrent connections for the default executor (0 = unlimited)
	HandshakeTimeout time.Duration // optional upgrade-request read deadline
	ReadTimeout      time.Duration // optional per-frame read deadline
	WriteTimeout     time.Duration // optional per-frame write deadline
	ReusePort        bool          // set SO_REUSEPORT on the listening socket
	KeepAlive        time.Duration // TCP keep-alive period (0 = Go default, negative disables)
	AcceptCPUs       []int         // pin the accept loop to the first CPU listed
	ShutdownTimeout  time.Duration // graceful shutdown timeout
}

// DefaultConfig returns sensible defaults. All deadlines are disabled.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:      ":9000",
		ShutdownTimeout: 30 * time.Second,
	}
}

func (c *Config) clone() *Config {
	out := *c
	out.AcceptCPUs = append([]int(nil), c.AcceptCPUs...)
	return &out
}
