package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a drift-free countdown. It never ticks on its own: every accessor
// reconciles elapsed wall-clock time against the clock first, so the
// remaining time is exact no matter how rarely it is polled. Expiration is
// detected by the caller via Expired.
type Timer struct {
	clock      clockwork.Clock
	running    bool
	duration   time.Duration
	remaining  time.Duration
	lastUpdate time.Time
}

// State is a copy of the timer's current position, for snapshots.
type State struct {
	Running   bool          `json:"running"`
	Remaining time.Duration `json:"remaining"`
	Duration  time.Duration `json:"duration"`
}

// New creates a stopped timer. In production pass
// clockwork.NewRealClock(); tests use a FakeClock.
func New(clock clockwork.Clock) *Timer {
	return &Timer{clock: clock}
}

// Start resets the countdown to d and starts it running.
func (t *Timer) Start(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.running = true
	t.duration = d
	t.remaining = d
	t.lastUpdate = t.clock.Now()
}

// Pause reconciles and stops the countdown. Pausing while already paused is
// a no-op.
func (t *Timer) Pause() {
	t.reconcile()
	t.running = false
}

// Resume restarts a paused countdown without charging it for the paused
// interval. No-op if already running.
func (t *Timer) Resume() {
	if t.running {
		return
	}
	t.running = true
	t.lastUpdate = t.clock.Now()
}

// Adjust adds delta to the remaining time, floored at zero. The running
// state is unchanged. Growing past the original duration also grows the
// duration so percentage accessors stay meaningful.
func (t *Timer) Adjust(delta time.Duration) {
	t.reconcile()
	t.remaining += delta
	if t.remaining < 0 {
		t.remaining = 0
	}
	if t.remaining > t.duration {
		t.duration = t.remaining
	}
}

// Remaining reconciles and returns the time left on the countdown.
func (t *Timer) Remaining() time.Duration {
	t.reconcile()
	return t.remaining
}

// Elapsed returns how much of the countdown has been consumed.
func (t *Timer) Elapsed() time.Duration {
	t.reconcile()
	return t.duration - t.remaining
}

// PercentRemaining returns the remaining fraction as 0-100.
func (t *Timer) PercentRemaining() float64 {
	t.reconcile()
	if t.duration <= 0 {
		return 0
	}
	return float64(t.remaining) / float64(t.duration) * 100
}

// Expired reports whether the countdown has reached zero.
func (t *Timer) Expired() bool {
	t.reconcile()
	return t.remaining <= 0
}

// Running reports whether the countdown is currently counting down.
func (t *Timer) Running() bool {
	return t.running
}

// Snapshot returns a copy of the timer position.
func (t *Timer) Snapshot() State {
	t.reconcile()
	return State{Running: t.running, Remaining: t.remaining, Duration: t.duration}
}

// reconcile charges the countdown for wall-clock time elapsed since the last
// update. Only running time counts; while paused this is a no-op.
func (t *Timer) reconcile() {
	if !t.running {
		return
	}
	now := t.clock.Now()
	t.remaining -= now.Sub(t.lastUpdate)
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.lastUpdate = now
}
