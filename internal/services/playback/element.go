// Package playback owns the audio transport state machine. It is the single
// source of truth for current time, duration, play/pause and buffering
// state; every other component reads that state, none mutate it.
package playback

// EventKind identifies a media element readiness signal
type EventKind string

const (
	// EventLoaded fires once the media's metadata is known
	EventLoaded EventKind = "loaded"
	// EventWaiting fires when playback stalls for lack of data
	EventWaiting EventKind = "waiting"
	// EventCanPlay fires when enough data is available to (re)start
	EventCanPlay EventKind = "canplay"
	// EventEnded fires when playback reaches the end of the media
	EventEnded EventKind = "ended"
	// EventError fires on an unrecoverable media failure
	EventError EventKind = "error"
)

// Event is a readiness signal from a media element
type Event struct {
	Kind     EventKind
	Duration float64 // seconds, set on EventLoaded
	Err      error   // set on EventError
}

// Element is the underlying media transport the controller drives. It
// mirrors the surface of a browser media element: commands go down, and
// readiness events come back through the subscribed handler.
//
// Implementations deliver events asynchronously; the controller discards
// events from elements it has already torn down.
type Element interface {
	// Load begins loading the URL. Completion or failure is reported
	// through EventLoaded / EventError.
	Load(url string)

	// Play starts or resumes the transport
	Play() error

	// Pause halts the transport, keeping position
	Pause() error

	// SetPosition seeks to an absolute offset in seconds
	SetPosition(seconds float64)

	// Position returns the current transport offset in seconds
	Position() float64

	// SetVolume sets the output gain in [0,1]
	SetVolume(v float64)

	// SetMuted toggles output muting without changing the stored volume
	SetMuted(muted bool)

	// Subscribe registers the single event handler. Must be called before
	// Load.
	Subscribe(handler func(Event))

	// Close tears the element down. Events after Close are not delivered.
	Close() error
}

// ElementFactory builds a fresh element for each load, so switching tracks
// fully rebuilds transport state.
type ElementFactory func() Element
