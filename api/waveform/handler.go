package waveform

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/demodrop/engine/api/types"
	tracksvc "github.com/demodrop/engine/internal/services/tracks"
	"github.com/demodrop/engine/internal/services/waveformdata"
	"github.com/gin-gonic/gin"
)

// GetWaveform resolves display peaks for a track. The response always
// carries peaks: acquisition failures degrade through client-side analysis
// down to a synthetic placeholder, and the provenance field says which
// source won.
func GetWaveform(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
			return
		}

		if deps.Tracks == nil || deps.Waveforms == nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Waveform service not available",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		track, err := deps.Tracks.GetTrack(ctx, uint(trackID))
		if err != nil {
			if errors.Is(err, tracksvc.ErrTrackNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error":    "Track not found",
					"track_id": trackID,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    "Failed to load track",
				"track_id": trackID,
			})
			return
		}

		result, err := deps.Waveforms.Resolve(ctx, waveformdata.TrackURLs{
			Precomputed: track.WaveformURL,
			Media:       track.PlayableURL(),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    "Failed to resolve waveform",
				"track_id": trackID,
			})
			return
		}

		c.JSON(http.StatusOK, types.WaveformResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			TrackID:      uint(trackID),
			Peaks:        result.Peaks,
			Resolution:   len(result.Peaks),
			Provenance:   string(result.Provenance),
			Advisory:     result.Advisory,
		})
	}
}
