package jobs

import (
	"context"

	"github.com/demodrop/engine/internal/models"
)

// Service defines the business logic interface for processing job operations
type Service interface {
	// Enqueue operations
	EnqueueJob(ctx context.Context, trackID uint) (*models.ProcessingJob, error)

	// Status and retrieval
	GetJob(ctx context.Context, jobID uint) (*models.ProcessingJob, error)
	GetJobForTrack(ctx context.Context, trackID uint) (*models.ProcessingJob, error)
	GetTrackStatus(ctx context.Context, trackID uint) (models.ProcessingStatus, error)

	// Transitions (used by the transcode worker and the retry flow)
	AdvanceJob(ctx context.Context, jobID uint, next models.ProcessingStatus) error
	FailJob(ctx context.Context, jobID uint, cause error) error
	RetryTrack(ctx context.Context, trackID uint) error

	// Maintenance
	CleanupOldJobs(ctx context.Context, retentionDays int) (int64, error)
}
