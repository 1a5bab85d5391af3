package tracks

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/demodrop/engine/api/types"
	tracksvc "github.com/demodrop/engine/internal/services/tracks"
	"github.com/gin-gonic/gin"
)

const handlerTimeout = 10 * time.Second

// Get returns a track with its selected playable rendition
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
			return
		}
		if deps.Tracks == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Track service not available"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
		defer cancel()

		playable, err := deps.Tracks.Playable(ctx, uint(trackID))
		if err != nil {
			if errors.Is(err, tracksvc.ErrTrackNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error":    "Track not found",
					"track_id": trackID,
				})
				return
			}
			// Track exists but has no rendition yet: return it without a
			// playable URL rather than erroring
			track, getErr := deps.Tracks.GetTrack(ctx, uint(trackID))
			if getErr == nil {
				c.JSON(http.StatusOK, types.TrackResponse{
					BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "No playable rendition yet"},
					Track:        track,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    "Failed to load track",
				"track_id": trackID,
			})
			return
		}

		c.JSON(http.StatusOK, types.TrackResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Track:        playable.Track,
			PlayableURL:  playable.PlayableURL,
			Lossless:     playable.Lossless,
		})
	}
}

// List returns one page of an owner's tracks
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.Query("owner")
		if ownerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "owner query parameter is required"})
			return
		}
		if deps.Tracks == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Track service not available"})
			return
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
		defer cancel()

		list, total, err := deps.Tracks.ListTracksByOwner(ctx, ownerID, page, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tracks"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": types.StatusOK,
			"tracks": list,
			"count":  len(list),
			"total":  total,
			"page":   page,
		})
	}
}

// Delete removes a track owned by the caller
func Delete(deps *types.Dependencies) gin.HandlerFunc {
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
		if deps.Tracks == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Track service not available"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
		defer cancel()

		if err := deps.Tracks.DeleteTrack(ctx, uint(trackID), ownerID); err != nil {
			if errors.Is(err, tracksvc.ErrTrackNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
				return
			}
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, types.BaseResponse{Status: types.StatusOK, Message: "Track deleted"})
	}
}
