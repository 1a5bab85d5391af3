package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Get handles version requests
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Demodrop Engine",
			"version":     "1.0.0",
			"description": "Audio playback and waveform engine for sharing demos",
			"status":      "running",
		})
	}
}
