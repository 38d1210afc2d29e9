// Package anim emulates the Web Animations interface the style-effect
// dispatcher schedules against: animation handles with idle/running/finished
// play states, cancellation, finish callbacks, named speeds and the
// registries that turn abstract effect descriptors into keyframes.
package anim

import (
	"sync"
	"time"
)

// Keyframe maps kebab-case property names to CSS values for one frame.
type Keyframe map[string]string

// Play states, matching Animation.playState.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateFinished = "finished"
)

// Animation is a scheduled animation over a list of keyframes. The zero
// value is not usable; construct with New.
type Animation struct {
	mu        sync.Mutex
	keyframes []Keyframe
	timing    Timing
	state     string
	timer     *time.Timer
	commit    func(final Keyframe)
	finishCbs []func(*Animation)
}

// New builds an idle animation. commit, when non-nil, is invoked on natural
// finish with the final keyframe; the dispatcher uses it to persist the
// forwards fill into inline style. Cancelled animations never commit.
func New(keyframes []Keyframe, timing Timing, commit func(final Keyframe)) *Animation {
	return &Animation{
		keyframes: keyframes,
		timing:    timing,
		state:     StateIdle,
		commit:    commit,
	}
}

// Keyframes returns the scheduled frames.
func (a *Animation) Keyframes() []Keyframe {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keyframes
}

// Timing returns the resolved timing record.
func (a *Animation) Timing() Timing {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timing
}

// PlayState returns idle, running or finished.
func (a *Animation) PlayState() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// OnFinish registers a callback run when the animation finishes naturally.
// Callbacks fire on the timer goroutine, after the commit.
func (a *Animation) OnFinish(fn func(*Animation)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finishCbs = append(a.finishCbs, fn)
}

// Play starts the animation. Playing a running or finished animation is a
// no-op.
func (a *Animation) Play() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateIdle {
		return
	}
	a.state = StateRunning
	total := a.timing.Delay + a.timing.Duration
	a.timer = time.AfterFunc(total, a.finish)
}

func (a *Animation) finish() {
	a.mu.Lock()
	if a.state != StateRunning {
		a.mu.Unlock()
		return
	}
	a.state = StateFinished
	commit := a.commit
	cbs := make([]func(*Animation), len(a.finishCbs))
	copy(cbs, a.finishCbs)
	var final Keyframe
	if len(a.keyframes) > 0 {
		final = a.keyframes[len(a.keyframes)-1]
	}
	a.mu.Unlock()

	if commit != nil && a.timing.Fill == FillForwards && final != nil {
		commit(final)
	}
	for _, cb := range cbs {
		cb(a)
	}
}

// Cancel aborts the animation and returns it to the idle state. Finish
// callbacks do not run; the fill is not committed.
func (a *Animation) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.state = StateIdle
}

// Finish fast-forwards a running animation to its end, committing the fill
// and firing callbacks synchronously.
func (a *Animation) Finish() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	running := a.state == StateRunning
	a.mu.Unlock()
	if running {
		a.finish()
	}
}
