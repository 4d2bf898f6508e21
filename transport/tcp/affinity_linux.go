//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - Linux-specific CPU affinity implementation.

package tcp

import "golang.org/x/sys/unix"

// setCPUAffinity pins the current OS thread to a specific CPU.
func setCPUAffinity(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
