package services

import (
	"sync"
	"testing"
	"time"
)

func TestPinThrottle_ExponentialLockout(t *testing.T) {
	clock := newStubClock()
	throttle := NewPinThrottle(3, 30*time.Second, 2*time.Minute, clock)
	key := "user_1|loc"

	for i := 0; i < 2; i++ {
		if _, ok := throttle.Reserve(key); !ok {
			t.Fatalf("attempt %d blocked before free attempts were used", i+1)
		}
		if lock := throttle.Lockout(key); lock != 0 {
			t.Fatalf("attempt %d locked for %v, want no lockout", i+1, lock)
		}
	}

	wantLocks := []time.Duration{30 * time.Second, time.Minute, 2 * time.Minute, 2 * time.Minute}
	for i, want := range wantLocks {
		if _, ok := throttle.Reserve(key); !ok {
			t.Fatalf("attempt after lockout %d elapsed was blocked", i)
		}
		if lock := throttle.Lockout(key); lock != want {
			t.Errorf("lockout %d = %v, want %v", i+1, lock, want)
		}
		wait, ok := throttle.Reserve(key)
		if ok || wait != want {
			t.Errorf("Reserve() during lockout %d = %v, %v; want %v, false", i+1, wait, ok, want)
		}
		clock.Advance(want)
	}

	if lock := throttle.Lockout(key); lock != 0 {
		t.Errorf("Lockout() = %v after lockout elapsed, want 0", lock)
	}
	throttle.Success(key)
	if _, ok := throttle.Reserve(key); !ok {
		t.Fatal("Reserve() blocked after Success")
	}
	if lock := throttle.Lockout(key); lock != 0 {
		t.Errorf("first attempt after Success locked for %v, want 0", lock)
	}
}

func TestPinThrottle_ConcurrentAttemptsStopAtFreeLimit(t *testing.T) {
	throttle := NewPinThrottle(5, time.Minute, time.Hour, newStubClock())
	key := "user_1|acme"

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	start := make(chan struct{})
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := throttle.Reserve(key); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if allowed != 5 {
		t.Errorf("allowed %d concurrent attempts, want 5", allowed)
	}
}

func TestPinThrottle_KeysAreIndependent(t *testing.T) {
	throttle := NewPinThrottle(1, time.Minute, time.Hour, newStubClock())
	throttle.Reserve("user_1|acme")
	if _, ok := throttle.Reserve("user_1|acme"); ok {
		t.Fatal("expected user_1|acme to be locked")
	}
	if _, ok := throttle.Reserve("user_1|other"); !ok {
		t.Error("lockout leaked to another location")
	}
	if _, ok := throttle.Reserve("user_2|acme"); !ok {
		t.Error("lockout leaked to another principal")
	}
}

func TestPinThrottle_Sweep(t *testing.T) {
	clock := newStubClock()
	throttle := NewPinThrottle(5, time.Second, time.Minute, clock)
	throttle.Reserve("a")
	if n := throttle.Sweep(); n != 0 {
		t.Fatalf("Sweep() removed %d fresh entries", n)
	}
	clock.Advance(2 * time.Minute)
	if n := throttle.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
}
