package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/demodrop/engine/internal/models"
	"gorm.io/gorm"
)

// Repository errors
var (
	ErrJobNotFound       = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Repository defines the interface for processing job persistence
type Repository interface {
	// Create operations
	CreateJob(ctx context.Context, job *models.ProcessingJob) error

	// Read operations
	GetJob(ctx context.Context, id uint) (*models.ProcessingJob, error)
	GetLatestJobForTrack(ctx context.Context, trackID uint) (*models.ProcessingJob, error)
	GetJobsByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]*models.ProcessingJob, error)

	// Update operations
	UpdateJobStatus(ctx context.Context, jobID uint, status models.ProcessingStatus) error
	FailJob(ctx context.Context, jobID uint, errorMsg string) error
	RequeueJob(ctx context.Context, jobID uint) error

	// Delete operations
	DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error)
}

// repository implements Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new processing job repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

// CreateJob creates a new processing job
func (r *repository) CreateJob(ctx context.Context, job *models.ProcessingJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJob retrieves a job by ID
func (r *repository) GetJob(ctx context.Context, id uint) (*models.ProcessingJob, error) {
	var job models.ProcessingJob
	err := r.db.WithContext(ctx).First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetLatestJobForTrack retrieves the most recent job for a track
func (r *repository) GetLatestJobForTrack(ctx context.Context, trackID uint) (*models.ProcessingJob, error) {
	var job models.ProcessingJob
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("created_at DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobsByStatus retrieves jobs in the given status, oldest first
func (r *repository) GetJobsByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]*models.ProcessingJob, error) {
	var jobs []*models.ProcessingJob
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateJobStatus moves a job to status, enforcing legal transitions and
// stamping started/completed times.
func (r *repository) UpdateJobStatus(ctx context.Context, jobID uint, status models.ProcessingStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.ProcessingJob
		if err := tx.First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}

		if !job.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, status)
		}

		updates := map[string]interface{}{
			"status":   status,
			"progress": status.Progress(),
		}
		now := time.Now()
		if status == models.StatusProcessing && job.StartedAt == nil {
			updates["started_at"] = &now
		}
		if status.IsTerminal() {
			updates["completed_at"] = &now
		}

		return tx.Model(&job).Updates(updates).Error
	})
}

// FailJob marks a job failed with an error message
func (r *repository) FailJob(ctx context.Context, jobID uint, errorMsg string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.ProcessingJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":       models.StatusFailed,
			"progress":     0,
			"error":        errorMsg,
			"completed_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// RequeueJob moves a failed job back to queued for a retry
func (r *repository) RequeueJob(ctx context.Context, jobID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.ProcessingJob
		if err := tx.First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}

		if !job.Status.CanTransitionTo(models.StatusQueued) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, models.StatusQueued)
		}

		return tx.Model(&job).Updates(map[string]interface{}{
			"status":       models.StatusQueued,
			"progress":     models.StatusQueued.Progress(),
			"error":        "",
			"completed_at": nil,
			"retry_count":  gorm.Expr("retry_count + 1"),
		}).Error
	})
}

// DeleteOldJobs removes terminal jobs older than the cutoff
func (r *repository) DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ? AND status IN ?", olderThan, []models.ProcessingStatus{models.StatusCompleted, models.StatusFailed}).
		Delete(&models.ProcessingJob{})
	return result.RowsAffected, result.Error
}
