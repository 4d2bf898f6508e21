//go:build !linux
// +build !linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - stub for platforms without thread affinity support.

package tcp

import "github.com/momentics/wsengine/api"

func setCPUAffinity(int) error { return api.ErrNotSupported }
