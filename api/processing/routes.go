package processing

import (
	"github.com/demodrop/engine/api/types"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all processing-status routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("/:id/processing", GetStatus(deps))
	router.POST("/:id/processing/retry", Retry(deps))
}
