// Package scheduler provides a cancellable fixed-interval task with explicit
// wall-clock deadlines, replacing ad-hoc interval/timeout bookkeeping at call
// sites.
package scheduler

import (
	"sync"
	"time"
)

// Options configures a scheduled task
type Options struct {
	Interval     time.Duration // Tick period (required)
	SoftDeadline time.Duration // Fires OnSoftDeadline once; ticking continues (0 = disabled)
	HardDeadline time.Duration // Fires OnHardDeadline and stops the task (0 = disabled)
	Immediate    bool          // Run the first tick right away instead of after one interval
}

// Hooks are the task callbacks. All hooks run on the task goroutine.
type Hooks struct {
	OnTick         func(elapsed time.Duration)
	OnSoftDeadline func()
	OnHardDeadline func()
}

// Start runs the task loop and returns an idempotent disposer.
// The disposer is safe to call multiple times and from hook callbacks
// scheduled on other goroutines.
func Start(opts Options, hooks Hooks) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() { close(done) })
	}

	go run(opts, hooks, done, stop)

	return stop
}

func run(opts Options, hooks Hooks, done <-chan struct{}, stop func()) {
	start := time.Now()
	softFired := false

	tick := func() bool {
		elapsed := time.Since(start)

		if opts.HardDeadline > 0 && elapsed >= opts.HardDeadline {
			if hooks.OnHardDeadline != nil {
				hooks.OnHardDeadline()
			}
			stop()
			return false
		}

		if !softFired && opts.SoftDeadline > 0 && elapsed >= opts.SoftDeadline {
			softFired = true
			if hooks.OnSoftDeadline != nil {
				hooks.OnSoftDeadline()
			}
		}

		if hooks.OnTick != nil {
			hooks.OnTick(elapsed)
		}
		return true
	}

	if opts.Immediate {
		select {
		case <-done:
			return
		default:
		}
		if !tick() {
			return
		}
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !tick() {
				return
			}
		}
	}
}
