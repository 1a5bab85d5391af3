package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/demodrop/engine/internal/models"
	"github.com/demodrop/engine/internal/services/processing"
)

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

// EnqueueJob creates a processing job for a track. If a non-terminal job
// already exists for the track it is returned instead of creating a
// duplicate.
func (s *service) EnqueueJob(ctx context.Context, trackID uint) (*models.ProcessingJob, error) {
	existing, err := s.repo.GetLatestJobForTrack(ctx, trackID)
	if err == nil && existing != nil && !existing.Status.IsTerminal() {
		log.Printf("[DEBUG] Job already exists for track %d (ID: %d, Status: %s)",
			trackID, existing.ID, existing.Status)
		return existing, nil
	}
	if err != nil && !errors.Is(err, ErrJobNotFound) {
		return nil, fmt.Errorf("checking existing job: %w", err)
	}

	job := &models.ProcessingJob{
		TrackID: trackID,
		Status:  models.StatusPending,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	log.Printf("[DEBUG] Enqueued processing job ID %d for track %d", job.ID, trackID)

	return job, nil
}

func (s *service) GetJob(ctx context.Context, jobID uint) (*models.ProcessingJob, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

func (s *service) GetJobForTrack(ctx context.Context, trackID uint) (*models.ProcessingJob, error) {
	job, err := s.repo.GetLatestJobForTrack(ctx, trackID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting job for track: %w", err)
	}
	return job, nil
}

func (s *service) GetTrackStatus(ctx context.Context, trackID uint) (models.ProcessingStatus, error) {
	job, err := s.GetJobForTrack(ctx, trackID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

func (s *service) AdvanceJob(ctx context.Context, jobID uint, next models.ProcessingStatus) error {
	if err := s.repo.UpdateJobStatus(ctx, jobID, next); err != nil {
		return fmt.Errorf("advancing job %d to %s: %w", jobID, next, err)
	}
	log.Printf("[DEBUG] Job %d advanced to %s", jobID, next)
	return nil
}

func (s *service) FailJob(ctx context.Context, jobID uint, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	if err := s.repo.FailJob(ctx, jobID, msg); err != nil {
		return fmt.Errorf("failing job %d: %w", jobID, err)
	}
	log.Printf("[ERROR] Job %d failed: %s", jobID, msg)
	return nil
}

// RetryTrack re-queues the latest failed job for a track
func (s *service) RetryTrack(ctx context.Context, trackID uint) error {
	job, err := s.repo.GetLatestJobForTrack(ctx, trackID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("getting job for retry: %w", err)
	}

	if err := s.repo.RequeueJob(ctx, job.ID); err != nil {
		return fmt.Errorf("requeueing job %d: %w", job.ID, err)
	}

	log.Printf("[DEBUG] Job %d for track %d re-queued (retry %d)", job.ID, trackID, job.RetryCount+1)
	return nil
}

func (s *service) CleanupOldJobs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	deleted, err := s.repo.DeleteOldJobs(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up old jobs: %w", err)
	}
	if deleted > 0 {
		log.Printf("[DEBUG] Cleaned up %d jobs older than %d days", deleted, retentionDays)
	}
	return deleted, nil
}

// statusSource adapts the jobs service to the poller's Source interface
type statusSource struct {
	svc Service
}

// StatusSource exposes a jobs service as a processing status source
func StatusSource(svc Service) processing.Source {
	return &statusSource{svc: svc}
}

func (s *statusSource) Status(ctx context.Context, trackID uint) (models.ProcessingStatus, error) {
	return s.svc.GetTrackStatus(ctx, trackID)
}

func (s *statusSource) Retry(ctx context.Context, trackID uint) error {
	return s.svc.RetryTrack(ctx, trackID)
}
