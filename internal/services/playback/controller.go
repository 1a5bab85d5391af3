package playback

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

// State is the controller's lifecycle phase
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
	StateError   State = "error"
)

// toggleDebounce is the minimum spacing between transport toggles. Rapid
// repeated clicks collapse into the first one instead of racing play and
// pause commands against each other.
const toggleDebounce = 150 * time.Millisecond

// MediaLoadError reports a failed media load with its source URL
type MediaLoadError struct {
	URL   string
	Cause error
}

func (e *MediaLoadError) Error() string {
	return fmt.Sprintf("failed to load media %s: %v", e.URL, e.Cause)
}

func (e *MediaLoadError) Unwrap() error {
	return e.Cause
}

// Snapshot is a point-in-time copy of the controller's observable state
type Snapshot struct {
	State       State
	URL         string
	CurrentTime float64
	Duration    float64
	IsPlaying   bool
	IsBuffering bool
	Volume      float64
	IsMuted     bool
	LastError   error
}

// Controller is the transport state machine. It drives one Element at a
// time and is the only component allowed to mutate playback state.
//
// All methods are safe for concurrent use.
type Controller struct {
	factory ElementFactory

	mu          sync.Mutex
	elem        Element
	generation  int // invalidates events from torn-down elements
	state       State
	url         string
	duration    float64
	buffering   bool
	volume      float64
	muted       bool
	preMute     float64  // volume to restore on unmute
	pendingSeek *float64 // seek captured while still loading
	lastToggle  time.Time
	lastErr     error
	session     *Session
}

// NewController builds an idle controller. Elements are created lazily, one
// per Load, so switching tracks fully rebuilds transport state.
func NewController(factory ElementFactory) *Controller {
	return &Controller{
		factory: factory,
		state:   StateIdle,
		volume:  1.0,
		preMute: 1.0,
	}
}

// Load tears down any current element and begins loading url. The
// controller enters StateLoading; completion moves it to StatePaused.
func (c *Controller) Load(url string) error {
	if url == "" {
		return &MediaLoadError{URL: url, Cause: fmt.Errorf("empty URL")}
	}

	c.mu.Lock()
	old := c.elem
	c.generation++
	gen := c.generation

	elem := c.factory()
	c.elem = elem
	c.state = StateLoading
	c.url = url
	c.duration = 0
	c.buffering = false
	c.pendingSeek = nil
	c.lastErr = nil
	c.session = newSession(url)
	volume, muted := c.volume, c.muted
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	elem.Subscribe(func(ev Event) { c.handleEvent(gen, ev) })
	elem.SetVolume(volume)
	elem.SetMuted(muted)
	elem.Load(url)

	log.Printf("[DEBUG] playback: loading %s", url)
	return nil
}

// Unload tears down the element and returns the controller to idle
func (c *Controller) Unload() {
	c.mu.Lock()
	elem := c.elem
	c.elem = nil
	c.generation++
	c.state = StateIdle
	c.url = ""
	c.duration = 0
	c.buffering = false
	c.pendingSeek = nil
	c.session = nil
	c.mu.Unlock()

	if elem != nil {
		_ = elem.Close()
	}
}

// TogglePlayPause flips between playing and paused. Calls are debounced so
// rapid toggling cannot race overlapping transport commands. While the
// media is still loading the toggle is ignored entirely; it does not stamp
// the debounce window, so a toggle right after load completion still works.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return
	}
	now := time.Now()
	if now.Sub(c.lastToggle) < toggleDebounce {
		c.mu.Unlock()
		return
	}
	c.lastToggle = now

	switch c.state {
	case StatePlaying:
		elem := c.elem
		c.state = StatePaused
		if c.session != nil {
			c.session.pause(elemPosition(elem))
		}
		c.mu.Unlock()
		if elem != nil {
			if err := elem.Pause(); err != nil {
				log.Printf("[ERROR] playback: pause failed: %v", err)
			}
		}
	case StatePaused, StateEnded:
		elem := c.elem
		if elem == nil {
			c.mu.Unlock()
			return
		}
		if c.state == StateEnded {
			elem.SetPosition(0)
		}
		c.state = StatePlaying
		if c.session != nil {
			c.session.resume()
		}
		c.mu.Unlock()
		if err := elem.Play(); err != nil {
			c.mu.Lock()
			c.state = StateError
			c.lastErr = err
			c.mu.Unlock()
			log.Printf("[ERROR] playback: play failed: %v", err)
		}
	default:
		c.mu.Unlock()
	}
}

// Seek moves the transport to seconds. A seek issued while the media is
// still loading is captured and replayed once loading completes, so the
// user's chosen position survives the load.
func (c *Controller) Seek(seconds float64) {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	c.mu.Lock()
	if c.state == StateLoading {
		s := seconds
		c.pendingSeek = &s
		c.mu.Unlock()
		return
	}
	elem := c.elem
	duration := c.duration
	if c.state == StateEnded && elem != nil {
		c.state = StatePaused
	}
	c.mu.Unlock()

	if elem != nil {
		if duration > 0 && seconds > duration {
			seconds = duration
		}
		elem.SetPosition(seconds)
	}
}

// SetVolume sets the output gain, clamped to [0,1]. Setting a non-zero
// volume while muted unmutes.
func (c *Controller) SetVolume(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	} else if v > 1 {
		v = 1
	}

	c.mu.Lock()
	c.volume = v
	unmute := c.muted && v > 0
	if unmute {
		c.muted = false
	}
	elem := c.elem
	c.mu.Unlock()

	if elem != nil {
		elem.SetVolume(v)
		if unmute {
			elem.SetMuted(false)
		}
	}
}

// ToggleMute mutes or unmutes. Unmuting restores the volume held before
// the mute.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	if c.muted {
		c.muted = false
		c.volume = c.preMute
	} else {
		c.preMute = c.volume
		c.muted = true
	}
	muted, volume, elem := c.muted, c.volume, c.elem
	c.mu.Unlock()

	if elem != nil {
		elem.SetMuted(muted)
		elem.SetVolume(volume)
	}
}

// Progress returns the played fraction in [0,1]. Unknown or non-finite
// durations yield 0, never NaN.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	duration := c.duration
	elem := c.elem
	c.mu.Unlock()

	if elem == nil || duration <= 0 || math.IsInf(duration, 0) || math.IsNaN(duration) {
		return 0
	}
	p := elem.Position() / duration
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Snapshot returns a copy of the observable state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:       c.state,
		URL:         c.url,
		Duration:    c.duration,
		IsPlaying:   c.state == StatePlaying,
		IsBuffering: c.buffering,
		Volume:      c.volume,
		IsMuted:     c.muted,
		LastError:   c.lastErr,
	}
	if c.elem != nil {
		snap.CurrentTime = c.elem.Position()
	}
	return snap
}

// Session returns the bookkeeping for the current load, or nil when idle
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) handleEvent(gen int, ev Event) {
	c.mu.Lock()
	if gen != c.generation {
		// Event from a torn-down element
		c.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventLoaded:
		c.duration = ev.Duration
		pending := c.pendingSeek
		c.pendingSeek = nil
		c.state = StatePaused
		elem := c.elem
		c.mu.Unlock()

		if pending != nil && elem != nil {
			pos := *pending
			if ev.Duration > 0 && pos > ev.Duration {
				pos = ev.Duration
			}
			elem.SetPosition(pos)
		}

	case EventWaiting:
		c.buffering = true
		c.mu.Unlock()

	case EventCanPlay:
		c.buffering = false
		c.mu.Unlock()

	case EventEnded:
		c.state = StateEnded
		c.buffering = false
		if c.session != nil {
			c.session.pause(c.duration)
		}
		c.mu.Unlock()

	case EventError:
		c.state = StateError
		c.buffering = false
		c.lastErr = &MediaLoadError{URL: c.url, Cause: ev.Err}
		c.mu.Unlock()
		log.Printf("[ERROR] playback: media error for %s: %v", c.url, ev.Err)

	default:
		c.mu.Unlock()
	}
}

func elemPosition(elem Element) float64 {
	if elem == nil {
		return 0
	}
	return elem.Position()
}
