package spheres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnimationRunsSequencesBackToBack(t *testing.T) {
	ae := NewAnimationEngine()
	var first, second []time.Duration
	a := NewAnimation(
		Linear(100*time.Millisecond, func(d time.Duration) { first = append(first, d) }),
		Linear(100*time.Millisecond, func(d time.Duration) { second = append(second, d) }),
	)
	finished := false
	a.OnFinished = func() { finished = true }
	ae.AddAnimation(a, 0)

	ae.Step(60 * time.Millisecond)
	ae.Step(60 * time.Millisecond)
	ae.Step(100 * time.Millisecond)

	assert.Equal(t, []time.Duration{60 * time.Millisecond, 100 * time.Millisecond}, first)
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 100 * time.Millisecond}, second)
	assert.True(t, finished)
	assert.True(t, a.Retired())
	assert.Equal(t, 0, ae.Len())
}

func TestAnimationStartDelay(t *testing.T) {
	ae := NewAnimationEngine()
	calls := 0
	ae.AddAnimation(NewAnimation(Linear(time.Second, func(time.Duration) { calls++ })), 50*time.Millisecond)

	ae.Step(40 * time.Millisecond)
	assert.Equal(t, 0, calls)
	ae.Step(20 * time.Millisecond)
	assert.Equal(t, 1, calls)
}

func TestAnimationAutoRepeatCarriesOvershoot(t *testing.T) {
	ae := NewAnimationEngine()
	var got []time.Duration
	a := NewAnimation(Linear(100*time.Millisecond, func(d time.Duration) { got = append(got, d) }))
	a.AutoRepeat = true
	ae.AddAnimation(a, 0)

	ae.Step(130 * time.Millisecond)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 30 * time.Millisecond}, got)
	assert.Equal(t, 1, ae.Len())
	assert.False(t, a.Retired())
}

func TestAnimationRetire(t *testing.T) {
	ae := NewAnimationEngine()
	calls := 0
	a := NewAnimation(Linear(time.Second, func(time.Duration) { calls++ }))
	ae.AddAnimation(a, 0)
	ae.Step(10 * time.Millisecond)
	a.Retire()
	ae.Step(10 * time.Millisecond)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, ae.Len())
}

func TestTanhEasesIn(t *testing.T) {
	var got time.Duration
	s := Tanh(time.Second, func(d time.Duration) { got = d })

	s.Fn(0)
	assert.Equal(t, time.Duration(0), got)
	s.Fn(100 * time.Millisecond)
	assert.Less(t, got, 100*time.Millisecond)
	s.Fn(time.Second)
	assert.InDelta(t, float64(time.Second), float64(got), float64(10*time.Millisecond))
	assert.Equal(t, 2*time.Second, NewAnimation(s).Append(Linear(time.Second, nil)).Duration())
}
