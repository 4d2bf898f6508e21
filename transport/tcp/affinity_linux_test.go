//go:build linux

package tcp

import (
	"runtime"
	"testing"

	"golang.org/x/sys/unix"
)

func TestPinAcceptThread(t *testing.T) {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		t.Skipf("sched_getaffinity: %v", err)
	}
	cpu := -1
	for i := 0; i < runtime.NumCPU()*4 && cpu < 0; i++ {
		if allowed.IsSet(i) {
			cpu = i
		}
	}
	if cpu < 0 {
		t.Skip("no CPU in affinity mask")
	}

	errc := make(chan error, 1)
	go func() {
		defer runtime.UnlockOSThread()
		if err := PinAcceptThread([]int{cpu}); err != nil {
			errc <- err
			return
		}
		var got unix.CPUSet
		if err := unix.SchedGetaffinity(0, &got); err != nil {
			errc <- err
			return
		}
		if got.Count() != 1 || !got.IsSet(cpu) {
			t.Errorf("affinity after pin: count=%d", got.Count())
		}
		errc <- nil
	}()
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}
