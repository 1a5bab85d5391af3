package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/demodrop/engine/internal/services/analysis"
	"github.com/demodrop/engine/pkg/fetch"
)

// StreamElement is an Element backed by an HTTP media stream. Loading
// fetches and decodes the media to learn its duration; the transport clock
// is then simulated against wall time, emitting Ended when the position
// reaches the end. Volume and mute are bookkeeping for consumers reading
// transport state.
type StreamElement struct {
	fetcher  *fetch.Client
	analyzer *analysis.Analyzer

	mu       sync.Mutex
	handler  func(Event)
	cancel   context.CancelFunc
	duration float64
	offset   float64 // position at the last anchor
	anchor   time.Time
	playing  bool
	volume   float64
	muted    bool
	closed   bool
	watchGen int // invalidates scheduled end timers
}

// NewStreamElement builds an element that loads media through fetcher and
// measures duration with analyzer.
func NewStreamElement(fetcher *fetch.Client, analyzer *analysis.Analyzer) *StreamElement {
	return &StreamElement{
		fetcher:  fetcher,
		analyzer: analyzer,
		volume:   1.0,
	}
}

// StreamElementFactory adapts NewStreamElement to the controller's factory
func StreamElementFactory(fetcher *fetch.Client, analyzer *analysis.Analyzer) ElementFactory {
	return func() Element {
		return NewStreamElement(fetcher, analyzer)
	}
}

func (e *StreamElement) Load(url string) {
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	go func() {
		e.emit(Event{Kind: EventWaiting})

		stream, err := e.fetcher.OpenStream(ctx, url)
		if err != nil {
			e.emit(Event{Kind: EventError, Err: err})
			return
		}
		defer stream.Body.Close()

		format := analysis.DetectFormat(url, stream.ContentType)
		if format == analysis.FormatUnknown {
			e.emit(Event{Kind: EventError, Err: fmt.Errorf("cannot determine media format for %s", url)})
			return
		}

		duration, err := e.analyzer.Duration(ctx, stream.Body, format)
		if err != nil {
			e.emit(Event{Kind: EventError, Err: err})
			return
		}

		e.mu.Lock()
		e.duration = duration
		e.mu.Unlock()

		e.emit(Event{Kind: EventLoaded, Duration: duration})
		e.emit(Event{Kind: EventCanPlay})
	}()
}

func (e *StreamElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("element is closed")
	}
	if e.playing {
		return nil
	}
	if e.duration > 0 && e.offset >= e.duration {
		e.offset = 0
	}
	e.playing = true
	e.anchor = time.Now()
	e.scheduleEndLocked()
	return nil
}

func (e *StreamElement) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.playing {
		e.offset = e.positionLocked()
		e.playing = false
		e.watchGen++
	}
	return nil
}

func (e *StreamElement) SetPosition(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.offset = seconds
	e.anchor = time.Now()
	if e.playing {
		e.scheduleEndLocked()
	}
}

func (e *StreamElement) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *StreamElement) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
}

func (e *StreamElement) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
}

func (e *StreamElement) Subscribe(handler func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

func (e *StreamElement) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.playing = false
	e.watchGen++
	if e.cancel != nil {
		e.cancel()
	}
	return nil
}

func (e *StreamElement) positionLocked() float64 {
	pos := e.offset
	if e.playing {
		pos += time.Since(e.anchor).Seconds()
	}
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	return pos
}

// scheduleEndLocked arms a timer for the remaining play time. Pause, seek
// and Close bump watchGen so a stale timer fires harmlessly.
func (e *StreamElement) scheduleEndLocked() {
	e.watchGen++
	gen := e.watchGen

	remaining := time.Duration((e.duration - e.positionLocked()) * float64(time.Second))
	if remaining < 0 {
		remaining = 0
	}

	time.AfterFunc(remaining, func() {
		e.mu.Lock()
		if gen != e.watchGen || !e.playing || e.closed {
			e.mu.Unlock()
			return
		}
		e.playing = false
		e.offset = e.duration
		e.mu.Unlock()

		e.emit(Event{Kind: EventEnded})
	})
}

func (e *StreamElement) emit(ev Event) {
	e.mu.Lock()
	h := e.handler
	closed := e.closed
	e.mu.Unlock()

	if h != nil && !closed {
		h(ev)
	}
}
