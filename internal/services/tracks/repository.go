package tracks

import (
	"context"
	"errors"
	"fmt"

	"github.com/demodrop/engine/internal/models"
	"gorm.io/gorm"
)

// ErrTrackNotFound is returned when a track lookup misses
var ErrTrackNotFound = errors.New("track not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) TrackRepository {
	return &Repository{db: db}
}

// CreateTrack creates a new track
func (r *Repository) CreateTrack(ctx context.Context, track *models.Track) error {
	if err := r.db.WithContext(ctx).Create(track).Error; err != nil {
		return fmt.Errorf("creating track: %w", err)
	}
	return nil
}

// UpdateTrack updates an existing track
func (r *Repository) UpdateTrack(ctx context.Context, track *models.Track) error {
	result := r.db.WithContext(ctx).Save(track)
	if result.Error != nil {
		return fmt.Errorf("updating track: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTrackNotFound
	}
	return nil
}

// GetTrackByID retrieves a track by its database ID
func (r *Repository) GetTrackByID(ctx context.Context, id uint) (*models.Track, error) {
	var track models.Track
	if err := r.db.WithContext(ctx).First(&track, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("getting track: %w", err)
	}
	return &track, nil
}

// ListTracksByOwner returns one page of an owner's tracks, newest first
func (r *Repository) ListTracksByOwner(ctx context.Context, ownerID string, page, limit int) ([]models.Track, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Track{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting tracks: %w", err)
	}

	var tracks []models.Track
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tracks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing tracks: %w", err)
	}

	return tracks, total, nil
}

// SetProcessingStatus updates only the denormalized status column
func (r *Repository) SetProcessingStatus(ctx context.Context, trackID uint, status models.ProcessingStatus) error {
	return r.updateColumns(ctx, trackID, map[string]interface{}{
		"processing_status": status,
	})
}

// SetRenditionURLs records the URLs produced by the transcode pipeline
func (r *Repository) SetRenditionURLs(ctx context.Context, trackID uint, wavURL, transcodedURL, compressedURL string) error {
	return r.updateColumns(ctx, trackID, map[string]interface{}{
		"wav_url":        wavURL,
		"transcoded_url": transcodedURL,
		"compressed_url": compressedURL,
	})
}

// SetWaveformURL records the precomputed peaks document URL
func (r *Repository) SetWaveformURL(ctx context.Context, trackID uint, waveformURL string) error {
	return r.updateColumns(ctx, trackID, map[string]interface{}{
		"waveform_url": waveformURL,
	})
}

// DeleteTrack soft-deletes a track
func (r *Repository) DeleteTrack(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Track{}, id)
	if result.Error != nil {
		return fmt.Errorf("deleting track: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTrackNotFound
	}
	return nil
}

func (r *Repository) updateColumns(ctx context.Context, trackID uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Track{}).
		Where("id = ?", trackID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating track %d: %w", trackID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTrackNotFound
	}
	return nil
}
