package tracks

import (
	"context"

	"github.com/demodrop/engine/internal/models"
)

// TrackRepository defines the data access interface for tracks
type TrackRepository interface {
	// Create/Update
	CreateTrack(ctx context.Context, track *models.Track) error
	UpdateTrack(ctx context.Context, track *models.Track) error

	// Read
	GetTrackByID(ctx context.Context, id uint) (*models.Track, error)
	ListTracksByOwner(ctx context.Context, ownerID string, page, limit int) ([]models.Track, int64, error)

	// Targeted updates from the processing pipeline
	SetProcessingStatus(ctx context.Context, trackID uint, status models.ProcessingStatus) error
	SetRenditionURLs(ctx context.Context, trackID uint, wavURL, transcodedURL, compressedURL string) error
	SetWaveformURL(ctx context.Context, trackID uint, waveformURL string) error

	// Delete
	DeleteTrack(ctx context.Context, id uint) error
}

// TrackService defines the business logic interface for track operations
type TrackService interface {
	CreateTrack(ctx context.Context, track *models.Track) error
	GetTrack(ctx context.Context, id uint) (*models.Track, error)
	ListTracksByOwner(ctx context.Context, ownerID string, page, limit int) ([]models.Track, int64, error)
	DeleteTrack(ctx context.Context, id uint, ownerID string) error

	// Playable resolves the best playable rendition for a track
	Playable(ctx context.Context, id uint) (*PlayableTrack, error)

	// Pipeline hooks
	MarkProcessingStatus(ctx context.Context, trackID uint, status models.ProcessingStatus) error
	AttachRenditions(ctx context.Context, trackID uint, wavURL, transcodedURL, compressedURL string) error
	AttachWaveform(ctx context.Context, trackID uint, waveformURL string) error
}

// PlayableTrack pairs a track with its selected playback rendition
type PlayableTrack struct {
	Track       *models.Track `json:"track"`
	PlayableURL string        `json:"playable_url"`
	Lossless    bool          `json:"lossless"`
}
