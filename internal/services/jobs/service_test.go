package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/demodrop/engine/internal/models"
)

// mockRepository implements Repository in memory
type mockRepository struct {
	jobs   map[uint]*models.ProcessingJob
	nextID uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{jobs: make(map[uint]*models.ProcessingJob), nextID: 1}
}

func (m *mockRepository) CreateJob(ctx context.Context, job *models.ProcessingJob) error {
	job.ID = m.nextID
	job.CreatedAt = time.Now()
	m.nextID++
	m.jobs[job.ID] = job
	return nil
}

func (m *mockRepository) GetJob(ctx context.Context, id uint) (*models.ProcessingJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (m *mockRepository) GetLatestJobForTrack(ctx context.Context, trackID uint) (*models.ProcessingJob, error) {
	var latest *models.ProcessingJob
	for _, job := range m.jobs {
		if job.TrackID != trackID {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, ErrJobNotFound
	}
	return latest, nil
}

func (m *mockRepository) GetJobsByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]*models.ProcessingJob, error) {
	var out []*models.ProcessingJob
	for _, job := range m.jobs {
		if job.Status == status && len(out) < limit {
			out = append(out, job)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateJobStatus(ctx context.Context, jobID uint, status models.ProcessingStatus) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if !job.Status.CanTransitionTo(status) {
		return ErrInvalidTransition
	}
	job.Status = status
	job.Progress = status.Progress()
	return nil
}

func (m *mockRepository) FailJob(ctx context.Context, jobID uint, errorMsg string) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = models.StatusFailed
	job.Progress = 0
	job.Error = errorMsg
	return nil
}

func (m *mockRepository) RequeueJob(ctx context.Context, jobID uint) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if !job.Status.CanTransitionTo(models.StatusQueued) {
		return ErrInvalidTransition
	}
	job.Status = models.StatusQueued
	job.Progress = models.StatusQueued.Progress()
	job.Error = ""
	job.RetryCount++
	return nil
}

func (m *mockRepository) DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	var deleted int64
	for id, job := range m.jobs {
		if job.CreatedAt.Before(olderThan) && job.Status.IsTerminal() {
			delete(m.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

func TestEnqueueJobDeduplicates(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	first, err := svc.EnqueueJob(context.Background(), 1)
	if err != nil {
		t.Fatalf("EnqueueJob() error: %v", err)
	}
	second, err := svc.EnqueueJob(context.Background(), 1)
	if err != nil {
		t.Fatalf("EnqueueJob() error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("second enqueue created a duplicate job: %d vs %d", first.ID, second.ID)
	}
	if len(repo.jobs) != 1 {
		t.Errorf("repository holds %d jobs, want 1", len(repo.jobs))
	}
}

func TestEnqueueJobAfterTerminalCreatesNew(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	first, _ := svc.EnqueueJob(context.Background(), 1)
	if err := svc.FailJob(context.Background(), first.ID, errors.New("transcode crashed")); err != nil {
		t.Fatal(err)
	}

	second, err := svc.EnqueueJob(context.Background(), 1)
	if err != nil {
		t.Fatalf("EnqueueJob() error: %v", err)
	}
	if second.ID == first.ID {
		t.Error("terminal job should not block a new enqueue")
	}
}

func TestRetryTrackRequeuesFailedJob(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	job, _ := svc.EnqueueJob(context.Background(), 5)
	_ = svc.FailJob(context.Background(), job.ID, errors.New("boom"))

	if err := svc.RetryTrack(context.Background(), 5); err != nil {
		t.Fatalf("RetryTrack() error: %v", err)
	}

	got, _ := svc.GetJob(context.Background(), job.ID)
	if got.Status != models.StatusQueued {
		t.Errorf("status = %s, want queued", got.Status)
	}
	if got.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", got.RetryCount)
	}
	if got.Error != "" {
		t.Errorf("error = %q, want cleared", got.Error)
	}
}

func TestRetryTrackRejectsNonFailedJob(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	job, _ := svc.EnqueueJob(context.Background(), 5)
	_ = svc.AdvanceJob(context.Background(), job.ID, models.StatusCompleted)

	if err := svc.RetryTrack(context.Background(), 5); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("retrying a completed job returned %v, want ErrInvalidTransition", err)
	}
}

func TestAdvanceJobRejectsBackwardTransition(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	job, _ := svc.EnqueueJob(context.Background(), 5)
	_ = svc.AdvanceJob(context.Background(), job.ID, models.StatusProcessing)

	if err := svc.AdvanceJob(context.Background(), job.ID, models.StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("backward transition returned %v, want ErrInvalidTransition", err)
	}
}

func TestStatusSourceAdapter(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	source := StatusSource(svc)

	job, _ := svc.EnqueueJob(context.Background(), 9)

	status, err := source.Status(context.Background(), 9)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status != models.StatusPending {
		t.Errorf("status = %s, want pending", status)
	}

	_ = svc.FailJob(context.Background(), job.ID, errors.New("boom"))
	if err := source.Retry(context.Background(), 9); err != nil {
		t.Fatalf("Retry() error: %v", err)
	}
	status, _ = source.Status(context.Background(), 9)
	if status != models.StatusQueued {
		t.Errorf("status after retry = %s, want queued", status)
	}
}

func TestCleanupOldJobs(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	job, _ := svc.EnqueueJob(context.Background(), 1)
	_ = svc.AdvanceJob(context.Background(), job.ID, models.StatusCompleted)
	job.CreatedAt = time.Now().AddDate(0, 0, -60)

	deleted, err := svc.CleanupOldJobs(context.Background(), 30)
	if err != nil {
		t.Fatalf("CleanupOldJobs() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
