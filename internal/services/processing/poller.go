// Package processing polls track processing status on a fixed cadence and
// turns raw status reads into change events, forced-refresh hints and a hard
// stop when the backend is clearly stuck.
package processing

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/demodrop/engine/internal/models"
	"github.com/demodrop/engine/pkg/scheduler"
)

// Source reads and mutates processing status for a track
type Source interface {
	Status(ctx context.Context, trackID uint) (models.ProcessingStatus, error)
	Retry(ctx context.Context, trackID uint) error
}

// Options configures polling cadence and deadlines
type Options struct {
	Interval     time.Duration // status read period
	SoftDeadline time.Duration // the one forced-refresh hint if still not terminal
	HardDeadline time.Duration // polling stops entirely, no further callbacks
}

// DefaultOptions matches the platform cadence: poll every 3s, nudge at 12s,
// give up at 60s.
func DefaultOptions() Options {
	return Options{
		Interval:     3 * time.Second,
		SoftDeadline: 12 * time.Second,
		HardDeadline: 60 * time.Second,
	}
}

// Update is delivered whenever the observed status changes
type Update struct {
	Status   models.ProcessingStatus
	Progress int
}

// ProcessingTimeoutError reports that polling hit the hard deadline without
// the track reaching a terminal status.
type ProcessingTimeoutError struct {
	TrackID uint
	Elapsed time.Duration
}

func (e *ProcessingTimeoutError) Error() string {
	return fmt.Sprintf("processing status for track %d still not terminal after %s", e.TrackID, e.Elapsed)
}

// Poller watches processing status over an injected source
type Poller struct {
	source Source
	opts   Options
}

// NewPoller builds a poller; zero option fields fall back to the defaults
func NewPoller(source Source, opts Options) *Poller {
	def := DefaultOptions()
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.SoftDeadline <= 0 {
		opts.SoftDeadline = def.SoftDeadline
	}
	if opts.HardDeadline <= 0 {
		opts.HardDeadline = def.HardDeadline
	}
	return &Poller{source: source, opts: opts}
}

// Poll starts watching trackID. onStatusChange fires once per observed
// status transition with the mapped progress. onForceRefresh fires exactly
// once, at the soft deadline, if the status is still not terminal. The hard
// deadline stops polling without further callbacks; the timeout is logged.
// The returned cancel is idempotent; polling also stops by itself once the
// status is terminal.
func (p *Poller) Poll(trackID uint, onStatusChange func(Update), onForceRefresh func()) (cancel func()) {
	var mu sync.Mutex
	var last models.ProcessingStatus

	// The immediate first tick can request a stop before Start returns, so
	// the disposer is handed over under a lock and a pending request replays.
	var stopMu sync.Mutex
	var stopFn func()
	var stopPending bool
	requestStop := func() {
		stopMu.Lock()
		fn := stopFn
		if fn == nil {
			stopPending = true
		}
		stopMu.Unlock()
		if fn != nil {
			fn()
		}
	}

	stop := scheduler.Start(scheduler.Options{
		Interval:     p.opts.Interval,
		SoftDeadline: p.opts.SoftDeadline,
		HardDeadline: p.opts.HardDeadline,
		Immediate:    true,
	}, scheduler.Hooks{
		OnTick: func(elapsed time.Duration) {
			ctx, cancelRead := context.WithTimeout(context.Background(), p.opts.Interval)
			status, err := p.source.Status(ctx, trackID)
			cancelRead()
			if err != nil {
				log.Printf("[ERROR] processing: status read for track %d failed: %v", trackID, err)
				return
			}

			mu.Lock()
			changed := status != last
			last = status
			mu.Unlock()

			if changed {
				log.Printf("[DEBUG] processing: track %d is now %s", trackID, status)
				if onStatusChange != nil {
					onStatusChange(Update{Status: status, Progress: status.Progress()})
				}
			}
			if status.IsTerminal() {
				requestStop()
			}
		},
		OnSoftDeadline: func() {
			log.Printf("[DEBUG] processing: track %d still pending, forcing a refresh", trackID)
			if onForceRefresh != nil {
				onForceRefresh()
			}
		},
		OnHardDeadline: func() {
			log.Printf("[ERROR] processing: %v", &ProcessingTimeoutError{TrackID: trackID, Elapsed: p.opts.HardDeadline})
		},
	})

	stopMu.Lock()
	stopFn = stop
	pending := stopPending
	stopMu.Unlock()
	if pending {
		stop()
	}

	return stop
}

// Retry re-submits a failed track for processing; its status moves back to
// queued.
func (p *Poller) Retry(ctx context.Context, trackID uint) error {
	if err := p.source.Retry(ctx, trackID); err != nil {
		return fmt.Errorf("retrying processing for track %d: %w", trackID, err)
	}
	log.Printf("[DEBUG] processing: track %d re-queued", trackID)
	return nil
}
