package expiry

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTimer_FiresAtMostOnce(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}
	expiresAt := clock.Now().Add(-time.Second) // already past the deadline

	var fires atomic.Int32

	timer := New(
		&Config{TickInterval: time.Millisecond, Clock: clock.Now},
		expiresAt,
		nil,
		func() { fires.Add(1) },
	)

	// a second Run simulates a replayed start; the fire gate must hold
	timer.Run(context.Background())
	timer.Run(context.Background())

	if got := fires.Load(); got != 1 {
		t.Errorf("expected exactly one expiry fire, got %d", got)
	}
	if !timer.Expired() {
		t.Error("timer should report expired")
	}
}

func TestTimer_ResumeReevaluatesDeadline(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}
	expiresAt := clock.Now().Add(time.Minute)

	fired := make(chan struct{})

	// an hour-long tick models the suspended interval callbacks: only the
	// resume signal can notice the deadline
	timer := New(
		&Config{TickInterval: time.Hour, Clock: clock.Now},
		expiresAt,
		nil,
		func() { close(fired) },
	)

	done := make(chan struct{})
	go func() {
		timer.Run(context.Background())
		close(done)
	}()

	// deadline passes while "suspended"
	clock.Advance(2 * time.Minute)
	timer.Resume()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("resume did not trigger the expiry re-check")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer loop did not exit after expiring")
	}
}

func TestTimer_TicksReportRemaining(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}
	expiresAt := clock.Now().Add(time.Minute)

	ticked := make(chan time.Duration, 1)

	timer := New(
		&Config{TickInterval: time.Millisecond, Clock: clock.Now},
		expiresAt,
		func(remaining time.Duration) {
			select {
			case ticked <- remaining:
			default:
			}
		},
		nil,
	)

	go timer.Run(context.Background())
	defer timer.Stop()

	select {
	case remaining := <-ticked:
		if remaining <= 0 || remaining > time.Minute {
			t.Errorf("unexpected remaining duration: %v", remaining)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no countdown tick observed")
	}
}

func TestTimer_StopPreventsFiring(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}
	expiresAt := clock.Now().Add(time.Minute)

	var fires atomic.Int32

	timer := New(
		&Config{TickInterval: time.Millisecond, Clock: clock.Now},
		expiresAt,
		nil,
		func() { fires.Add(1) },
	)

	done := make(chan struct{})
	go func() {
		timer.Run(context.Background())
		close(done)
	}()

	timer.Stop()
	timer.Stop() // idempotent

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer loop did not exit after Stop")
	}

	clock.Advance(2 * time.Minute)
	time.Sleep(10 * time.Millisecond)

	if got := fires.Load(); got != 0 {
		t.Errorf("stopped timer fired %d times", got)
	}
}
