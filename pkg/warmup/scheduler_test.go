package warmup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewScheduler_InvalidSpec(t *testing.T) {
	w := NewWarmer(nil, DefaultConfig())
	if _, err := NewScheduler(w, "every now and then"); err == nil {
		t.Error("Expected error for invalid schedule")
	}
}

func TestScheduler_RunsWarmer(t *testing.T) {
	if testing.Short() {
		t.Skip("schedule granularity is one second")
	}

	var runs int32
	w := NewWarmer([]Job{{Name: "tick", Run: func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}}}, DefaultConfig())

	s, err := NewScheduler(w, "@every 1s")
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.Start(context.Background())
	s.Start(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()
	s.Stop()

	if atomic.LoadInt32(&runs) == 0 {
		t.Error("warmer never ran")
	}

	after := atomic.LoadInt32(&runs)
	time.Sleep(1200 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != after {
		t.Errorf("warmer ran after Stop: %d -> %d", after, got)
	}
}
