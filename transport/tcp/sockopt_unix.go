//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// socketControl returns the net.ListenConfig hook applying socket options
// before bind.
func socketControl(reusePort bool) func(network, address string, c syscall.RawConn) error {
	if !reusePort {
		return nil
	}
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		})
		if err != nil {
			return err
		}
		return serr
	}
}
