package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsJob(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10*time.Millisecond, nil, true)
	var calls atomic.Int32
	fired := make(chan time.Time, 16)

	err := s.Start(context.Background(), func(at time.Time) {
		calls.Add(1)
		select {
		case fired <- at:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case at := <-fired:
			if at.Location() != time.UTC {
				t.Fatalf("expected UTC trigger time, got %v", at.Location())
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("job did not fire (calls=%d)", calls.Load())
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != after {
		t.Fatalf("job kept running after Stop")
	}
}

func TestIntervalSchedulerRejectsZeroInterval(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(0, nil, false)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestIntervalSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour, nil, false)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}

func TestIntervalSchedulerRestartsAfterContextCancel(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour, nil, true)
	first := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx, func(time.Time) { first <- struct{}{} }); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatalf("initial run did not fire")
	}
	cancel()

	second := make(chan struct{}, 1)
	job := func(time.Time) {
		select {
		case second <- struct{}{}:
		default:
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := s.Start(context.Background(), job); err != nil {
			t.Fatalf("restart returned error: %v", err)
		}
		select {
		case <-second:
			if err := s.Stop(context.Background()); err != nil {
				t.Fatalf("Stop returned error: %v", err)
			}
			return
		case <-time.After(10 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatalf("scheduler never restarted after its context was cancelled")
		}
	}
}
