// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the listening-socket factory for the WebSocket
// server: TCP listen with socket options, TLS wrapping and certificate
// loading, and accept-thread CPU affinity.
package tcp
