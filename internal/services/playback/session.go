package playback

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// playCountThreshold is how much cumulative listening time counts as one
// play. A session counts at most once, so scrubbing back and forth cannot
// inflate play counts.
const playCountThreshold = 30 * time.Second

// Session tracks listening bookkeeping for a single loaded media URL. A new
// session is created on every Load, so play counting resets when the track
// changes.
type Session struct {
	ID        string
	TrackURL  string
	StartedAt time.Time

	mu        sync.Mutex
	listened  time.Duration
	resumedAt time.Time
	playing   bool
	counted   bool
}

func newSession(url string) *Session {
	return &Session{
		ID:        uuid.New().String(),
		TrackURL:  url,
		StartedAt: time.Now(),
	}
}

func (s *Session) resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		s.playing = true
		s.resumedAt = time.Now()
	}
}

// pause accumulates listened time; position is unused for the cooldown but
// kept for symmetry with resume so callers pass what they know.
func (s *Session) pause(_ float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.playing = false
		s.listened += time.Since(s.resumedAt)
	}
}

// Listened returns the cumulative playing time of this session
func (s *Session) Listened() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.listened
	if s.playing {
		d += time.Since(s.resumedAt)
	}
	return d
}

// ShouldCountPlay reports whether the listening threshold has been reached
// and this session has not yet been counted. The first true return flips
// the counted flag, so each session contributes at most one play.
func (s *Session) ShouldCountPlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counted {
		return false
	}
	d := s.listened
	if s.playing {
		d += time.Since(s.resumedAt)
	}
	if d < playCountThreshold {
		return false
	}
	s.counted = true
	return true
}
