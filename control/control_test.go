package control_test

import (
	"sync"
	"testing"

	"github.com/momentics/wsengine/control"
)

func TestMetricsRegistryAdd(t *testing.T) {
	mr := control.NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mr.Add(control.MetricFramesIn, 2)
			mr.Add(control.MetricConnectionsActive, 1)
			mr.Add(control.MetricConnectionsActive, -1)
		}()
	}
	wg.Wait()
	if got := mr.Counter(control.MetricFramesIn); got != 100 {
		t.Fatalf("frames.in = %d, want 100", got)
	}
	if got := mr.Counter(control.MetricConnectionsActive); got != 0 {
		t.Fatalf("connections.active = %d, want 0", got)
	}
	if mr.Updated().IsZero() {
		t.Fatal("Updated not recorded")
	}
}

func TestMetricsRegistrySnapshotIsCopy(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.Set("listener.addr", "127.0.0.1:9000")
	mr.Add(control.MetricMessagesIn, 1)

	snap := mr.GetSnapshot()
	snap["listener.addr"] = "mutated"
	if mr.GetSnapshot()["listener.addr"] != "127.0.0.1:9000" {
		t.Fatal("snapshot aliases registry state")
	}
	if snap[control.MetricMessagesIn] != int64(1) {
		t.Fatalf("messages.in = %v", snap[control.MetricMessagesIn])
	}

	// A non-counter value is replaced by Add.
	mr.Set("mixed", "text")
	mr.Add("mixed", 3)
	if mr.Counter("mixed") != 3 {
		t.Fatalf("mixed = %v", mr.GetSnapshot()["mixed"])
	}
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("b", func() any { return 2 })
	dp.RegisterProbe("a", func() any { return dp.Names() })

	names := dp.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names = %v", names)
	}
	state := dp.DumpState()
	if state["b"] != 2 {
		t.Fatalf("state = %v", state)
	}
}

func TestPlatformProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)
	state := dp.DumpState()
	if n, ok := state["platform.cpus"].(int); !ok || n < 1 {
		t.Fatalf("platform.cpus = %v", state["platform.cpus"])
	}
	if _, ok := state["platform.cpu_features"].(map[string]bool); !ok {
		t.Fatalf("platform.cpu_features = %T", state["platform.cpu_features"])
	}
	if state["platform.os"] == "" {
		t.Fatal("platform.os empty")
	}
}
