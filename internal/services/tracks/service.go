// Package tracks manages track records and selects the best playable
// rendition for each one.
package tracks

import (
	"context"
	"fmt"
	"log"

	"github.com/demodrop/engine/internal/models"
)

type Service struct {
	repository TrackRepository
}

func NewService(repository TrackRepository) TrackService {
	return &Service{
		repository: repository,
	}
}

func (s *Service) CreateTrack(ctx context.Context, track *models.Track) error {
	if track.Title == "" {
		return fmt.Errorf("track title is required")
	}
	if track.OwnerID == "" {
		return fmt.Errorf("track owner is required")
	}
	if track.ProcessingStatus == "" {
		track.ProcessingStatus = models.StatusPending
	}

	if err := s.repository.CreateTrack(ctx, track); err != nil {
		return err
	}

	log.Printf("[DEBUG] Created track %d (%s) for owner %s", track.ID, track.Title, track.OwnerID)
	return nil
}

func (s *Service) GetTrack(ctx context.Context, id uint) (*models.Track, error) {
	return s.repository.GetTrackByID(ctx, id)
}

func (s *Service) ListTracksByOwner(ctx context.Context, ownerID string, page, limit int) ([]models.Track, int64, error) {
	return s.repository.ListTracksByOwner(ctx, ownerID, page, limit)
}

// DeleteTrack removes a track after verifying ownership
func (s *Service) DeleteTrack(ctx context.Context, id uint, ownerID string) error {
	track, err := s.repository.GetTrackByID(ctx, id)
	if err != nil {
		return err
	}
	if track.OwnerID != ownerID {
		return fmt.Errorf("track %d is not owned by %s", id, ownerID)
	}
	return s.repository.DeleteTrack(ctx, id)
}

// Playable resolves the preferred rendition: lossless WAV first, then the
// transcoded and compressed versions, finally the original upload.
func (s *Service) Playable(ctx context.Context, id uint) (*PlayableTrack, error) {
	track, err := s.repository.GetTrackByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url := track.PlayableURL()
	if url == "" {
		return nil, fmt.Errorf("track %d has no playable rendition", id)
	}

	return &PlayableTrack{
		Track:       track,
		PlayableURL: url,
		Lossless:    track.HasLosslessPlayback(),
	}, nil
}

func (s *Service) MarkProcessingStatus(ctx context.Context, trackID uint, status models.ProcessingStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid processing status %q", status)
	}
	return s.repository.SetProcessingStatus(ctx, trackID, status)
}

func (s *Service) AttachRenditions(ctx context.Context, trackID uint, wavURL, transcodedURL, compressedURL string) error {
	if err := s.repository.SetRenditionURLs(ctx, trackID, wavURL, transcodedURL, compressedURL); err != nil {
		return err
	}
	log.Printf("[DEBUG] Attached renditions to track %d", trackID)
	return nil
}

func (s *Service) AttachWaveform(ctx context.Context, trackID uint, waveformURL string) error {
	return s.repository.SetWaveformURL(ctx, trackID, waveformURL)
}
