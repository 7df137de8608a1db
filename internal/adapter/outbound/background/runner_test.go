package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_RunsTasks(t *testing.T) {
	r := NewRunner(2, nil)
	var n atomic.Int32
	for i := 0; i < 5; i++ {
		r.Go(func(context.Context) { n.Add(1) })
	}

	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if n.Load() != 5 {
		t.Errorf("expected 5 tasks run, got %d", n.Load())
	}
}

func TestRunner_TaskContextNotCancelled(t *testing.T) {
	r := NewRunner(0, nil)
	errCh := make(chan error, 1)

	r.Go(func(ctx context.Context) { errCh <- ctx.Err() })

	_ = r.Shutdown(context.Background())
	if err := <-errCh; err != nil {
		t.Errorf("task context should not be cancelled, got %v", err)
	}
}

func TestRunner_RecoversPanics(t *testing.T) {
	r := NewRunner(0, nil)
	r.Go(func(context.Context) { panic("boom") })
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
}

func TestRunner_ShutdownTimeout(t *testing.T) {
	r := NewRunner(0, nil)
	release := make(chan struct{})
	defer close(release)
	r.Go(func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("expected ErrShutdownTimeout, got %v", err)
	}
}

func TestRunner_DropsAfterShutdown(t *testing.T) {
	r := NewRunner(0, nil)
	_ = r.Shutdown(context.Background())

	var ran atomic.Bool
	r.Go(func(context.Context) { ran.Store(true) })
	time.Sleep(10 * time.Millisecond)
	if ran.Load() {
		t.Error("task scheduled after shutdown should not run")
	}
}

func TestRunner_GoDoesNotBlockWhenSaturated(t *testing.T) {
	r := NewRunner(1, nil)
	release := make(chan struct{})
	r.Go(func(context.Context) { <-release })

	scheduled := make(chan struct{})
	go func() {
		r.Go(func(context.Context) {})
		close(scheduled)
	}()

	select {
	case <-scheduled:
	case <-time.After(time.Second):
		t.Fatal("Go blocked while the runner was at its limit")
	}
	close(release)
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
}

func TestRunner_ShutdownHonorsDeadlineWhenSaturated(t *testing.T) {
	r := NewRunner(1, nil)
	release := make(chan struct{})
	defer close(release)
	r.Go(func(context.Context) { <-release })
	r.Go(func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- r.Shutdown(ctx) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrShutdownTimeout) {
			t.Errorf("expected ErrShutdownTimeout, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown ignored its deadline")
	}
}

func TestRunner_RespectsLimit(t *testing.T) {
	r := NewRunner(2, nil)
	var running, peak atomic.Int32
	for i := 0; i < 8; i++ {
		r.Go(func(context.Context) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}

	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent tasks, got %d", peak.Load())
	}
}
