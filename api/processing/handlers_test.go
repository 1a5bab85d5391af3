package processing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/demodrop/engine/api/types"
	"github.com/demodrop/engine/internal/models"
	jobsvc "github.com/demodrop/engine/internal/services/jobs"
	tracksvc "github.com/demodrop/engine/internal/services/tracks"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJobs serves a fixed job per track
type stubJobs struct {
	jobsvc.Service
	jobs    map[uint]*models.ProcessingJob
	retried []uint
}

func (s *stubJobs) GetJobForTrack(ctx context.Context, trackID uint) (*models.ProcessingJob, error) {
	job, ok := s.jobs[trackID]
	if !ok {
		return nil, jobsvc.ErrJobNotFound
	}
	return job, nil
}

func (s *stubJobs) RetryTrack(ctx context.Context, trackID uint) error {
	job, ok := s.jobs[trackID]
	if !ok {
		return jobsvc.ErrJobNotFound
	}
	if job.Status != models.StatusFailed {
		return jobsvc.ErrInvalidTransition
	}
	job.Status = models.StatusQueued
	s.retried = append(s.retried, trackID)
	return nil
}

// stubTracks serves a fixed set of tracks
type stubTracks struct {
	tracksvc.TrackService
	tracks map[uint]*models.Track
}

func (s *stubTracks) GetTrack(ctx context.Context, id uint) (*models.Track, error) {
	track, ok := s.tracks[id]
	if !ok {
		return nil, tracksvc.ErrTrackNotFound
	}
	return track, nil
}

func (s *stubTracks) MarkProcessingStatus(ctx context.Context, trackID uint, status models.ProcessingStatus) error {
	if track, ok := s.tracks[trackID]; ok {
		track.ProcessingStatus = status
	}
	return nil
}

func setupRouter(deps *types.Dependencies) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/tracks"), deps)
	return router
}

func TestGetStatus(t *testing.T) {
	deps := &types.Dependencies{
		Jobs: &stubJobs{jobs: map[uint]*models.ProcessingJob{
			1: {Status: models.StatusProcessing},
		}},
	}
	router := setupRouter(deps)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tracks/1/processing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response types.ProcessingStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "processing", response.State)
	assert.Equal(t, 60, response.Progress)
	assert.False(t, response.Forced)
}

func TestGetStatusForcedEcho(t *testing.T) {
	deps := &types.Dependencies{
		Jobs: &stubJobs{jobs: map[uint]*models.ProcessingJob{
			1: {Status: models.StatusPending},
		}},
	}
	router := setupRouter(deps)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tracks/1/processing?forced=true", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response types.ProcessingStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Forced)
	assert.Equal(t, 10, response.Progress)
}

func TestGetStatusNoJob(t *testing.T) {
	deps := &types.Dependencies{Jobs: &stubJobs{jobs: map[uint]*models.ProcessingJob{}}}
	router := setupRouter(deps)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tracks/9/processing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRetryOwnerOnly(t *testing.T) {
	jobs := &stubJobs{jobs: map[uint]*models.ProcessingJob{
		1: {Status: models.StatusFailed},
	}}
	deps := &types.Dependencies{
		Jobs: jobs,
		Tracks: &stubTracks{tracks: map[uint]*models.Track{
			1: {Title: "Demo", OwnerID: "alice"},
		}},
	}
	router := setupRouter(deps)

	// Wrong owner
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tracks/1/processing/retry", nil)
	req.Header.Set("X-Owner-ID", "mallory")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, jobs.retried)

	// Right owner
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/tracks/1/processing/retry", nil)
	req.Header.Set("X-Owner-ID", "alice")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{1}, jobs.retried)

	var response types.ProcessingStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "queued", response.State)
}

func TestRetryNonFailedConflicts(t *testing.T) {
	deps := &types.Dependencies{
		Jobs: &stubJobs{jobs: map[uint]*models.ProcessingJob{
			1: {Status: models.StatusCompleted},
		}},
		Tracks: &stubTracks{tracks: map[uint]*models.Track{
			1: {Title: "Demo", OwnerID: "alice"},
		}},
	}
	router := setupRouter(deps)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tracks/1/processing/retry", nil)
	req.Header.Set("X-Owner-ID", "alice")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
