package services

import (
	"sync"
	"time"
)

// PinThrottle tracks PIN attempts per principal+location key and
// imposes an exponentially growing lockout once the free attempts are used up.
type PinThrottle struct {
	mu       sync.Mutex
	attempts map[string]*pinAttempts
	free     int
	base     time.Duration
	max      time.Duration
	clock    Clock
}

type pinAttempts struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

func NewPinThrottle(freeAttempts int, base, max time.Duration, clock Clock) *PinThrottle {
	if freeAttempts < 1 {
		freeAttempts = 1
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &PinThrottle{
		attempts: make(map[string]*pinAttempts),
		free:     freeAttempts,
		base:     base,
		max:      max,
		clock:    clock,
	}
}

// Reserve claims one PIN attempt for key before the PIN is compared. The
// attempt counts as a failure until Success clears it, so concurrent guesses
// cannot all slip in ahead of the lockout. When the key is locked Reserve
// returns the remaining wait and false.
func (t *PinThrottle) Reserve(key string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	a, ok := t.attempts[key]
	if !ok {
		a = &pinAttempts{}
		t.attempts[key] = a
	}
	if wait := a.lockedUntil.Sub(now); wait > 0 {
		return wait, false
	}
	a.failures++
	a.lastFailure = now
	if a.failures >= t.free {
		a.lockedUntil = now.Add(t.lockoutFor(a.failures - t.free))
	}
	return 0, true
}

// Lockout returns how long key stays locked, or zero.
func (t *PinThrottle) Lockout(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.attempts[key]
	if !ok {
		return 0
	}
	if wait := a.lockedUntil.Sub(t.clock.Now()); wait > 0 {
		return wait
	}
	return 0
}

func (t *PinThrottle) lockoutFor(excess int) time.Duration {
	lock := t.base
	for i := 0; i < excess && lock < t.max; i++ {
		lock *= 2
	}
	if lock > t.max {
		lock = t.max
	}
	return lock
}

// Success clears the failure history for key.
func (t *PinThrottle) Success(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, key)
}

// Sweep drops entries whose lockout has passed and that have been quiet for
// longer than the maximum lockout.
func (t *PinThrottle) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	removed := 0
	for key, a := range t.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.lastFailure) > t.max {
			delete(t.attempts, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until done is closed.
func (t *PinThrottle) StartSweeper(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.Sweep()
			case <-done:
				return
			}
		}
	}()
}
