package spheres

import (
	"math"
	"slices"
	"time"
)

// SequenceFunc applies the state of a sequence at time t since its start.
type SequenceFunc func(t time.Duration)

// Sequence is one segment of an animation. Fn is called every step while the
// sequence is active, and once more with the full Duration when it ends.
type Sequence struct {
	Duration time.Duration
	Fn       SequenceFunc
}

// Linear passes the elapsed time through unchanged.
func Linear(d time.Duration, fn SequenceFunc) Sequence {
	return Sequence{Duration: d, Fn: fn}
}

// Tanh eases in with a tanh curve over the sequence: fn sees the elapsed time
// scaled by tanh(elapsed/d*π), which reaches ~1 at the end.
func Tanh(d time.Duration, fn SequenceFunc) Sequence {
	return Sequence{Duration: d, Fn: func(t time.Duration) {
		if d <= 0 {
			fn(t)
			return
		}
		factor := math.Tanh(float64(t) / float64(d) * math.Pi)
		fn(time.Duration(float64(t) * factor))
	}}
}

// Animation runs its sequences back to back.
type Animation struct {
	Sequences  []Sequence
	AutoRepeat bool
	// OnFinished is called when a non repeating animation is retired.
	OnFinished func()

	start   time.Duration
	retired bool
}

func NewAnimation(sequences ...Sequence) *Animation {
	return &Animation{Sequences: sequences}
}

func (a *Animation) Append(s Sequence) *Animation {
	a.Sequences = append(a.Sequences, s)
	return a
}

func (a *Animation) Duration() time.Duration {
	var total time.Duration
	for _, s := range a.Sequences {
		total += s.Duration
	}
	return total
}

func (a *Animation) Retired() bool { return a.retired }

// Retire stops the animation; the engine drops it on its next step.
func (a *Animation) Retire() { a.retired = true }

// apply runs the sequence active at local time t. Sequences passed since the
// previous step are finished with their full duration first so their end
// state is never skipped.
func (a *Animation) apply(prev, t time.Duration) {
	var offset time.Duration
	for _, s := range a.Sequences {
		end := offset + s.Duration
		switch {
		case t >= end && prev < end:
			if s.Fn != nil {
				s.Fn(s.Duration)
			}
		case t >= offset && t < end:
			if s.Fn != nil {
				s.Fn(t - offset)
			}
			return
		}
		offset = end
	}
}

// AnimationEngine advances all running animations once per logic tick.
type AnimationEngine struct {
	now        time.Duration
	animations []*Animation
}

func NewAnimationEngine() *AnimationEngine { return &AnimationEngine{} }

// AddAnimation schedules a to start after the given delay.
func (ae *AnimationEngine) AddAnimation(a *Animation, start time.Duration) {
	a.start = ae.now + start
	a.retired = false
	ae.animations = append(ae.animations, a)
}

func (ae *AnimationEngine) Len() int { return len(ae.animations) }

func (ae *AnimationEngine) Step(dt time.Duration) {
	prevNow := ae.now
	ae.now += dt

	for _, a := range ae.animations {
		if a.retired || ae.now < a.start {
			continue
		}
		total := a.Duration()
		prev := prevNow - a.start
		if prev < 0 {
			prev = -1
		}
		t := ae.now - a.start

		if total <= 0 {
			a.retired = !a.AutoRepeat
			continue
		}
		if t < total {
			a.apply(prev, t)
			continue
		}

		a.apply(prev, total)
		if a.AutoRepeat {
			// restart and carry the overshoot into the next round
			over := (t - total) % total
			a.start = ae.now - over
			a.apply(-1, over)
			continue
		}
		a.retired = true
		if a.OnFinished != nil {
			a.OnFinished()
		}
	}

	ae.animations = slices.DeleteFunc(ae.animations, func(a *Animation) bool { return a.retired })
}
