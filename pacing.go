package spheres

import "time"

// Limiter paces a loop to a minimum period per iteration. Missed time is never
// caught up: an iteration that overruns its period simply reports how long it
// actually took.
type Limiter struct {
	period time.Duration
	start  time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewLimiter(period time.Duration) *Limiter {
	return &Limiter{
		period: period,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// NewRateLimiter creates a limiter for at most rate iterations per second.
func NewRateLimiter(rate int) *Limiter {
	return NewLimiter(periodOf(rate))
}

func (l *Limiter) Period() time.Duration { return l.period }

// Start marks the beginning of an iteration.
func (l *Limiter) Start() {
	l.start = l.now()
}

// End returns the time passed since Start without waiting.
func (l *Limiter) End() time.Duration {
	return l.now().Sub(l.start)
}

// EndWithWait sleeps the remainder of the period and returns the delta time
// the next iteration should use.
func (l *Limiter) EndWithWait() time.Duration {
	elapsed := l.End()
	remaining := l.period - elapsed
	if remaining <= 0 {
		return elapsed
	}
	l.sleep(remaining)
	return l.period
}
