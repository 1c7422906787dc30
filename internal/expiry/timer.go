package expiry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	// TickInterval drives the user-visible countdown refresh. Correctness
	// never depends on tick delivery: every tick and every resume re-checks
	// the absolute deadline against the wall clock.
	TickInterval time.Duration
	Clock        func() time.Time
}

// Timer counts down to an absolute wall-clock deadline and fires onExpire at
// most once, even when the process was suspended past the deadline and no
// tick ever arrived in between.
type Timer struct {
	config    *Config
	expiresAt time.Time
	onTick    func(remaining time.Duration)
	onExpire  func()
	fired     atomic.Bool
	resume    chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
	log       *slog.Logger
}

func New(config *Config, expiresAt time.Time, onTick func(time.Duration),
	onExpire func()) *Timer {

	if config == nil {
		config = &Config{}
	}
	if config.TickInterval == 0 {
		config.TickInterval = time.Second
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Timer{
		config:    config,
		expiresAt: expiresAt,
		onTick:    onTick,
		onExpire:  onExpire,
		resume:    make(chan struct{}, 1),
		stopped:   make(chan struct{}),
		log:       slog.With("component", "expiry-timer"),
	}
}

// Run blocks until the deadline fires, Stop is called, or ctx is cancelled.
func (t *Timer) Run(ctx context.Context) {
	if t.check() {
		return
	}

	ticker := time.NewTicker(t.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopped:
			return
		case <-t.resume:
			if t.check() {
				return
			}
		case <-ticker.C:
			if t.check() {
				return
			}
		}
	}
}

// Resume forces an immediate deadline re-check. Called when the app returns
// from background, where the OS may have withheld tick callbacks.
func (t *Timer) Resume() {
	select {
	case t.resume <- struct{}{}:
	default:
	}
}

func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopped)
	})
}

// Expired reports whether the expiry event already fired.
func (t *Timer) Expired() bool {
	return t.fired.Load()
}

func (t *Timer) check() bool {
	remaining := t.expiresAt.Sub(t.config.Clock())

	if remaining <= 0 {
		if t.fired.CompareAndSwap(false, true) {
			t.log.Debug("deadline reached", "expires_at", t.expiresAt)
			if t.onExpire != nil {
				t.onExpire()
			}
		}
		return true
	}

	if t.onTick != nil {
		t.onTick(remaining)
	}

	return false
}
