package processing

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/demodrop/engine/api/types"
	"github.com/demodrop/engine/internal/models"
	jobsvc "github.com/demodrop/engine/internal/services/jobs"
	tracksvc "github.com/demodrop/engine/internal/services/tracks"
	"github.com/gin-gonic/gin"
)

const handlerTimeout = 5 * time.Second

// GetStatus reports transcoding progress for a track. Clients doing a
// soft-deadline forced refresh pass ?forced=1 and get the flag echoed back
// so the response is distinguishable from a genuine completion poll.
func GetStatus(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
			return
		}
		if deps.Jobs == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Job service not available"})
			return
		}

		forced, _ := strconv.ParseBool(c.DefaultQuery("forced", "false"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
		defer cancel()

		job, err := deps.Jobs.GetJobForTrack(ctx, uint(trackID))
		if err != nil {
			if errors.Is(err, jobsvc.ErrJobNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error":    "No processing job for track",
					"track_id": trackID,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    "Failed to load processing status",
				"track_id": trackID,
			})
			return
		}

		c.JSON(http.StatusOK, types.ProcessingStatusResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			TrackID:      uint(trackID),
			JobID:        job.ID,
			State:        string(job.Status),
			Progress:     job.Status.Progress(),
			Error:        job.Error,
			Forced:       forced,
		})
	}
}

// Retry re-queues a failed processing job. Only the track owner may retry.
func Retry(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
			return
		}
		ownerID := c.GetHeader("X-Owner-ID")
		if ownerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-Owner-ID header is required"})
			return
		}
		if deps.Jobs == nil || deps.Tracks == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Job service not available"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
		defer cancel()

		track, err := deps.Tracks.GetTrack(ctx, uint(trackID))
		if err != nil {
			if errors.Is(err, tracksvc.ErrTrackNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load track"})
			return
		}
		if track.OwnerID != ownerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the track owner can retry processing"})
			return
		}

		if err := deps.Jobs.RetryTrack(ctx, uint(trackID)); err != nil {
			if errors.Is(err, jobsvc.ErrJobNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "No processing job for track"})
				return
			}
			if errors.Is(err, jobsvc.ErrInvalidTransition) {
				c.JSON(http.StatusConflict, gin.H{"error": "Only failed jobs can be retried"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry processing"})
			return
		}

		// Track status mirrors the job
		_ = deps.Tracks.MarkProcessingStatus(ctx, uint(trackID), models.StatusQueued)

		c.JSON(http.StatusOK, types.ProcessingStatusResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Processing re-queued"},
			TrackID:      uint(trackID),
			State:        string(models.StatusQueued),
			Progress:     models.StatusQueued.Progress(),
		})
	}
}
