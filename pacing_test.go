package spheres

import (
	"testing"
	"time"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) install(l *Limiter) {
	l.now = func() time.Time { return c.now }
	l.sleep = func(d time.Duration) {
		c.slept = append(c.slept, d)
		c.now = c.now.Add(d)
	}
}

func TestLimiterWaitsForRemainder(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := NewLimiter(20 * time.Millisecond)
	clock.install(l)

	l.Start()
	clock.now = clock.now.Add(5 * time.Millisecond)
	dt := l.EndWithWait()

	if dt != 20*time.Millisecond {
		t.Errorf("Expected dt of one period, got %v", dt)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 15*time.Millisecond {
		t.Errorf("Expected a 15ms sleep, got %v", clock.slept)
	}
}

func TestLimiterNeverCatchesUp(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := NewRateLimiter(50)
	clock.install(l)

	l.Start()
	clock.now = clock.now.Add(35 * time.Millisecond)
	dt := l.EndWithWait()
	if dt != 35*time.Millisecond {
		t.Errorf("Expected the overrun duration, got %v", dt)
	}
	if len(clock.slept) != 0 {
		t.Errorf("Overrun iteration must not sleep, slept %v", clock.slept)
	}

	l.Start()
	clock.now = clock.now.Add(time.Millisecond)
	if dt := l.EndWithWait(); dt != 20*time.Millisecond {
		t.Errorf("Next iteration should be paced normally, got %v", dt)
	}
}

func TestLimiterWithoutRate(t *testing.T) {
	l := NewRateLimiter(0)
	if l.Period() != 0 {
		t.Errorf("Expected no period, got %v", l.Period())
	}
	l.Start()
	if dt := l.EndWithWait(); dt < 0 {
		t.Errorf("Negative dt %v", dt)
	}
}
