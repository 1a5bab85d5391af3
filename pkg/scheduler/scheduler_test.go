package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTicksUntilStopped(t *testing.T) {
	var ticks atomic.Int64

	stop := Start(Options{Interval: 5 * time.Millisecond}, Hooks{
		OnTick: func(elapsed time.Duration) { ticks.Add(1) },
	})

	time.Sleep(40 * time.Millisecond)
	stop()
	after := ticks.Load()

	if after < 2 {
		t.Errorf("expected at least 2 ticks before stop, got %d", after)
	}

	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != after {
		t.Errorf("ticks continued after stop: %d -> %d", after, got)
	}
}

func TestImmediateFirstTick(t *testing.T) {
	ticked := make(chan struct{}, 1)

	stop := Start(Options{Interval: time.Hour, Immediate: true}, Hooks{
		OnTick: func(elapsed time.Duration) {
			select {
			case ticked <- struct{}{}:
			default:
			}
		},
	})
	defer stop()

	select {
	case <-ticked:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("immediate tick did not fire")
	}
}

func TestSoftDeadlineFiresOnce(t *testing.T) {
	var soft atomic.Int64

	stop := Start(Options{
		Interval:     5 * time.Millisecond,
		SoftDeadline: 20 * time.Millisecond,
	}, Hooks{
		OnSoftDeadline: func() { soft.Add(1) },
	})
	defer stop()

	time.Sleep(80 * time.Millisecond)
	if got := soft.Load(); got != 1 {
		t.Errorf("soft deadline fired %d times, want 1", got)
	}
}

func TestHardDeadlineStopsTask(t *testing.T) {
	var ticks, hard atomic.Int64

	stop := Start(Options{
		Interval:     5 * time.Millisecond,
		HardDeadline: 25 * time.Millisecond,
	}, Hooks{
		OnTick:         func(elapsed time.Duration) { ticks.Add(1) },
		OnHardDeadline: func() { hard.Add(1) },
	})
	defer stop()

	time.Sleep(60 * time.Millisecond)
	final := ticks.Load()
	time.Sleep(30 * time.Millisecond)

	if got := hard.Load(); got != 1 {
		t.Errorf("hard deadline fired %d times, want 1", got)
	}
	if got := ticks.Load(); got != final {
		t.Errorf("ticks continued after hard deadline: %d -> %d", final, got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	stop := Start(Options{Interval: 5 * time.Millisecond}, Hooks{})

	stop()
	stop()
	stop()
}
