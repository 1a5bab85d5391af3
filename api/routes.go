package api

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/demodrop/engine/api/health"
	"github.com/demodrop/engine/api/processing"
	"github.com/demodrop/engine/api/tracks"
	"github.com/demodrop/engine/api/types"
	"github.com/demodrop/engine/api/upload"
	"github.com/demodrop/engine/api/version"
	"github.com/demodrop/engine/api/waveform"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil {
		deps = &types.Dependencies{}
	}

	// Public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	engine.NoRoute(NotFoundHandler())

	// API v1 routes
	v1 := engine.Group("/api/v1")

	// Waveform resolution can fall back to decoding media, so it gets a
	// moderate limit (10 req/s, burst of 20)
	waveformGroup := v1.Group("/tracks")
	waveformGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 10, 20))
	waveform.RegisterRoutes(waveformGroup, deps)

	// Track metadata routes (10 req/s, burst of 20)
	trackGroup := v1.Group("/tracks")
	trackGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 10, 20))
	tracks.RegisterRoutes(trackGroup, deps)

	// Processing status is polled every few seconds per client, so allow a
	// little more headroom (20 req/s, burst of 30)
	processingGroup := v1.Group("/tracks")
	processingGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 20, 30))
	processing.RegisterRoutes(processingGroup, deps)

	// Uploads are heavyweight; keep them rare (1 req/s, burst of 2)
	uploadGroup := v1.Group("/uploads")
	uploadGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 1, 2))
	upload.RegisterRoutes(uploadGroup, deps)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(404, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
