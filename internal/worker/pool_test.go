package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolRunsJobs(t *testing.T) {
	pool := NewPool(2, 8, testLogger())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		ok := pool.Submit("job", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		if !ok {
			t.Fatal("Submit() rejected a job with queue capacity available")
		}
	}

	pool.Stop()

	if got := ran.Load(); got != 5 {
		t.Errorf("ran %d jobs, expected 5", got)
	}
}

func TestPoolRejectsWhenSaturated(t *testing.T) {
	pool := NewPool(1, 1, testLogger())

	block := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker.
	pool.Submit("blocker", func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	})
	<-started

	// Fill the queue.
	if !pool.Submit("queued", func(ctx context.Context) error { return nil }) {
		t.Fatal("Submit() rejected a job that fits the queue")
	}

	// Queue full now.
	if pool.Submit("overflow", func(ctx context.Context) error { return nil }) {
		t.Error("Submit() accepted a job beyond queue capacity")
	}

	close(block)
	pool.Stop()
}

func TestPoolSubmitAfterStop(t *testing.T) {
	pool := NewPool(1, 1, testLogger())
	pool.Stop()

	if pool.Submit("late", func(ctx context.Context) error { return nil }) {
		t.Error("Submit() accepted a job after Stop()")
	}
}

func TestPoolSurvivesFailuresAndPanics(t *testing.T) {
	pool := NewPool(1, 8, testLogger())

	var ran atomic.Int32
	pool.Submit("failing", func(ctx context.Context) error {
		return errors.New("downstream unavailable")
	})
	pool.Submit("panicking", func(ctx context.Context) error {
		panic("boom")
	})
	pool.Submit("after", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	pool.Stop()

	if ran.Load() != 1 {
		t.Error("worker did not survive a failing and a panicking job")
	}
}

func TestPoolStopIdempotent(t *testing.T) {
	pool := NewPool(1, 1, testLogger())

	done := make(chan struct{})
	go func() {
		pool.Stop()
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return")
	}
}
