package tasks

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerExecutesTasks(t *testing.T) {
	r := NewRunner(2, 8)
	var n int32
	for i := 0; i < 5; i++ {
		if ok := r.Submit("count", func() error {
			atomic.AddInt32(&n, 1)
			return nil
		}); !ok {
			t.Fatalf("expected submit to be accepted")
		}
	}
	r.Close()
	if got := atomic.LoadInt32(&n); got != 5 {
		t.Fatalf("expected 5 tasks run, got %d", got)
	}
}

func TestRunnerSwallowsFailures(t *testing.T) {
	r := NewRunner(1, 4)
	done := make(chan struct{})
	r.Submit("fails", func() error { return errors.New("boom") })
	r.Submit("panics", func() error { panic("boom") })
	r.Submit("after", func() error { close(done); return nil })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not survive a failing and panicking task")
	}
	r.Close()
}

func TestRunnerRejectsAfterClose(t *testing.T) {
	r := NewRunner(1, 4)
	r.Close()
	if ok := r.Submit("late", func() error { return nil }); ok {
		t.Fatalf("expected submit after close to be rejected")
	}
}

func TestRunnerDropsWhenFull(t *testing.T) {
	r := NewRunner(1, 1)
	block := make(chan struct{})
	r.Submit("blocker", func() error { <-block; return nil })

	// give the worker a moment to pick up the blocker
	time.Sleep(20 * time.Millisecond)

	// fill the queue, then overflow it
	r.Submit("queued", func() error { return nil })
	if ok := r.Submit("overflow", func() error { return nil }); ok {
		t.Fatalf("expected overflow submit to be dropped")
	}
	close(block)
	r.Close()
}
