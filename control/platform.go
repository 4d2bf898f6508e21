// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Platform probes shared by every OS. OS-specific extras live in the
// build-tagged platform_*.go files.

package control

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// RegisterPlatformProbes adds the platform.* probes to dp.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS + "/" + runtime.GOARCH
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
	dp.RegisterProbe("platform.cpu_features", func() any {
		return cpuFeatures()
	})
	registerOSProbes(dp)
}

// cpuFeatures reports the SIMD extensions relevant to payload masking.
func cpuFeatures() map[string]bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return map[string]bool{
			"sse2":   cpu.X86.HasSSE2,
			"avx2":   cpu.X86.HasAVX2,
			"avx512": cpu.X86.HasAVX512F,
		}
	case "arm64":
		return map[string]bool{
			"asimd": cpu.ARM64.HasASIMD,
		}
	default:
		return map[string]bool{}
	}
}
