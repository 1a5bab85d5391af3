// Package waveformdata resolves display peaks for a track through a tiered
// fallback chain: persistent cache, precomputed peaks document, client-side
// analysis of the playable media, and finally a synthetic placeholder.
package waveformdata

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/demodrop/engine/internal/services/analysis"
	"github.com/demodrop/engine/internal/services/waveformcache"
	"github.com/demodrop/engine/pkg/fetch"
)

// Provenance tags how a peaks array was obtained
type Provenance string

const (
	ProvenancePrecomputed Provenance = "precomputed"
	ProvenanceCached      Provenance = "cached"
	ProvenanceAnalyzed    Provenance = "analyzed"
	ProvenanceSynthetic   Provenance = "synthetic"
)

// FallbackAdvisory is attached to results that degraded to the synthetic tier
const FallbackAdvisory = "using fallback visualization"

// TrackURLs are the candidate sources for one track's waveform
type TrackURLs struct {
	Precomputed string // precomputed peaks document, may be empty
	Media       string // playable audio for client-side analysis, may be empty
}

// Result is a resolved peaks array with its provenance
type Result struct {
	Peaks      []float64  `json:"peaks"`
	Provenance Provenance `json:"provenance"`
	Advisory   string     `json:"advisory,omitempty"`
}

// Fetcher downloads precomputed peaks documents and media streams
type Fetcher interface {
	FetchPeaks(ctx context.Context, url string) ([]float64, error)
	OpenStream(ctx context.Context, url string) (*fetch.Stream, error)
}

// Analyzer decodes media and downsamples it to display peaks
type Analyzer interface {
	Analyze(ctx context.Context, r io.Reader, format analysis.Format, resolution int) ([]float64, error)
}

// attempt is an in-flight or completed resolution for one track key
type attempt struct {
	done   chan struct{}
	result *Result
}

// Store resolves waveform peaks. Resolutions for the same key are
// single-flight: a second request while one is outstanding waits for the
// first instead of duplicating work, and a completed attempt (including a
// failed tier) is never retried within the same store instance.
type Store struct {
	cache      *waveformcache.Cache
	fetcher    Fetcher
	analyzer   Analyzer
	resolution int

	mu       sync.Mutex
	attempts map[string]*attempt
}

// NewStore creates a new waveform data store
func NewStore(cache *waveformcache.Cache, fetcher Fetcher, analyzer Analyzer, resolution int) *Store {
	if resolution <= 0 {
		resolution = 250
	}
	return &Store{
		cache:      cache,
		fetcher:    fetcher,
		analyzer:   analyzer,
		resolution: resolution,
		attempts:   make(map[string]*attempt),
	}
}

// Resolve returns a renderable peaks array for the track. The chain
// guarantees a result: acquisition failures degrade to the next tier and the
// synthetic tier never fails. The only returned error is context
// cancellation.
func (s *Store) Resolve(ctx context.Context, urls TrackURLs) (*Result, error) {
	key := attemptKey(urls)

	s.mu.Lock()
	if a, ok := s.attempts[key]; ok {
		s.mu.Unlock()
		select {
		case <-a.done:
			return a.result, nil
		case <-ctx.Done():
			// The caller went away; the in-flight attempt keeps running and
			// its result stays memoized for the next mount.
			return nil, ctx.Err()
		}
	}

	a := &attempt{done: make(chan struct{})}
	s.attempts[key] = a
	s.mu.Unlock()

	// The chain runs detached from the caller's cancellation. A mount that
	// goes away mid-flight must not fail every tier with context.Canceled
	// and memoize a degraded result for all later mounts of the same track.
	// The fetcher's own timeouts still bound each tier.
	a.result = s.resolve(context.WithoutCancel(ctx), urls)
	close(a.done)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.result, nil
}

// Forget drops the memoized attempt for a track, forcing the next Resolve
// to run the chain again. Used when a track's media is replaced.
func (s *Store) Forget(urls TrackURLs) {
	s.mu.Lock()
	delete(s.attempts, attemptKey(urls))
	s.mu.Unlock()
}

func (s *Store) resolve(ctx context.Context, urls TrackURLs) *Result {
	// Tier 1: persistent cache under the precomputed URL
	if urls.Precomputed != "" {
		if peaks, ok := s.cache.Get(urls.Precomputed); ok {
			return &Result{Peaks: peaks, Provenance: ProvenanceCached}
		}
	}

	// Tier 2: fetch the precomputed peaks document
	if urls.Precomputed != "" {
		peaks, err := s.fetcher.FetchPeaks(ctx, urls.Precomputed)
		if err == nil {
			s.writeThrough(urls.Precomputed, peaks)
			return &Result{Peaks: peaks, Provenance: ProvenancePrecomputed}
		}
		log.Printf("[DEBUG] Precomputed peaks unavailable for %s: %v", urls.Precomputed, err)
	}

	// Tier 3: client-side analysis of the playable media
	if urls.Media != "" {
		if peaks, ok := s.cache.Get(urls.Media); ok {
			return &Result{Peaks: peaks, Provenance: ProvenanceCached}
		}

		peaks, err := s.analyze(ctx, urls.Media)
		if err == nil {
			s.writeThrough(urls.Media, peaks)
			return &Result{Peaks: peaks, Provenance: ProvenanceAnalyzed}
		}
		log.Printf("[DEBUG] Client-side analysis failed for %s: %v", urls.Media, err)
	}

	// Tier 4: synthetic placeholder, never fails. Not cached, so a later
	// mount can still pick up real data.
	return &Result{
		Peaks:      Synthesize(attemptKey(urls), s.resolution),
		Provenance: ProvenanceSynthetic,
		Advisory:   FallbackAdvisory,
	}
}

func (s *Store) analyze(ctx context.Context, mediaURL string) ([]float64, error) {
	stream, err := s.fetcher.OpenStream(ctx, mediaURL)
	if err != nil {
		return nil, err
	}
	defer stream.Body.Close()

	format := analysis.DetectFormat(mediaURL, stream.ContentType)
	return s.analyzer.Analyze(ctx, stream.Body, format, s.resolution)
}

// writeThrough stores peaks in the cache. Failures are logged and ignored:
// a cache write must never fail the acquisition path.
func (s *Store) writeThrough(url string, peaks []float64) {
	if err := s.cache.Set(url, peaks); err != nil {
		log.Printf("[DEBUG] Waveform cache write failed for %s: %v", url, err)
	}
}

func attemptKey(urls TrackURLs) string {
	if urls.Precomputed != "" {
		return waveformcache.NormalizeKey(urls.Precomputed)
	}
	return waveformcache.NormalizeKey(urls.Media)
}
