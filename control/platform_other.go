//go:build !linux
// +build !linux

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux platforms only get the shared probes.

package control

func registerOSProbes(*DebugProbes) {}
