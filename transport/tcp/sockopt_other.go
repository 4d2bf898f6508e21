//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"fmt"
	"syscall"

	"github.com/momentics/wsengine/api"
)

func socketControl(reusePort bool) func(network, address string, c syscall.RawConn) error {
	if !reusePort {
		return nil
	}
	return func(string, string, syscall.RawConn) error {
		return fmt.Errorf("%w: SO_REUSEPORT", api.ErrNotSupported)
	}
}
