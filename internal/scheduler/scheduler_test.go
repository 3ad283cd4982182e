package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestEveryRunsUntilCancelled(t *testing.T) {
	t.Parallel()

	s := New(zap.NewNop())
	defer s.Stop()

	var runs atomic.Int32
	handle, err := s.Every(time.Second, "refresh", func(context.Context) { runs.Add(1) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one entry, got %d", s.Len())
	}

	s.Start()
	s.Start()

	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("expected task to run at least once")
	}

	handle.Cancel()
	handle.Cancel()
	if s.Len() != 0 {
		t.Fatalf("expected entry to be removed, got %d", s.Len())
	}

	seen := runs.Load()
	time.Sleep(1500 * time.Millisecond)
	if runs.Load() != seen {
		t.Fatalf("expected no runs after cancel, got %d more", runs.Load()-seen)
	}
}

func TestEveryRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	s := New(nil)
	if _, err := s.Every(0, "zero", func(context.Context) {}); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if _, err := s.Every(time.Minute, "nil", nil); err == nil {
		t.Fatal("expected error for nil task")
	}
}

func TestStopCancelsTaskContext(t *testing.T) {
	t.Parallel()

	s := New(zap.NewNop())

	started := make(chan struct{}, 1)
	finished := make(chan struct{})
	if _, err := s.Every(time.Second, "blocking", func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		close(finished)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Start()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not start")
	}

	s.Stop()
	select {
	case <-finished:
	default:
		t.Fatal("expected Stop to wait for the running task")
	}
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := New(zap.NewNop())
	s.Stop()

	var nilHandle *Handle
	nilHandle.Cancel()
}

func TestStartAfterStopIsNoop(t *testing.T) {
	t.Parallel()

	s := New(zap.NewNop())

	var runs atomic.Int32
	if _, err := s.Every(time.Second, "refresh", func(context.Context) { runs.Add(1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Start()
	s.Stop()
	s.Start()
	defer s.Stop()

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		t.Fatal("expected a stopped scheduler not to restart")
	}

	time.Sleep(1500 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatalf("expected no runs after stop, got %d", runs.Load())
	}
}
