package concurrency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/momentics/wsengine/api"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestExecutorRunsTasksConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := NewExecutor(0, quietLogger())

	release := make(chan struct{})
	var started atomic.Int32
	for i := 0; i < 8; i++ {
		if err := e.Submit(func() {
			started.Add(1)
			<-release
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	deadline := time.Now().Add(time.Second)
	for started.Load() != 8 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if started.Load() != 8 {
		t.Fatalf("only %d of 8 blocking tasks started", started.Load())
	}
	if e.NumWorkers() != 8 {
		t.Fatalf("NumWorkers = %d", e.NumWorkers())
	}
	close(release)

	e.Close()
	if err := e.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s := e.Stats(); s["completed_tasks"] != 8 || s["running_tasks"] != 0 {
		t.Fatalf("stats = %v", s)
	}
}

func TestExecutorLimit(t *testing.T) {
	e := NewExecutor(1, quietLogger())
	release := make(chan struct{})
	if err := e.Submit(func() { <-release }); err != nil {
		t.Fatal(err)
	}
	if err := e.Submit(func() {}); !errors.Is(err, api.ErrResourceExhausted) {
		t.Fatalf("second Submit = %v, want ErrResourceExhausted", err)
	}
	close(release)
	e.Close()
	_ = e.Wait(context.Background())
	if e.Stats()["rejected_tasks"] != 1 {
		t.Fatalf("stats = %v", e.Stats())
	}
}

func TestExecutorClosed(t *testing.T) {
	e := NewExecutor(0, quietLogger())
	e.Close()
	e.Close()
	if err := e.Submit(func() {}); !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("Submit after Close = %v", err)
	}
	if err := e.Submit(nil); !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("Submit(nil) = %v", err)
	}
}

func TestExecutorRecoversPanics(t *testing.T) {
	e := NewExecutor(0, quietLogger())
	if err := e.Submit(func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}
	e.Close()
	if err := e.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Stats()["panicked_tasks"] != 1 {
		t.Fatalf("stats = %v", e.Stats())
	}
}

func TestExecutorWaitHonoursContext(t *testing.T) {
	e := NewExecutor(0, quietLogger())
	release := make(chan struct{})
	_ = e.Submit(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := e.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait = %v", err)
	}
	close(release)
	_ = e.Wait(context.Background())
}
