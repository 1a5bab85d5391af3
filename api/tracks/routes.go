package tracks

import (
	"github.com/demodrop/engine/api/types"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all track-related routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", List(deps))
	router.GET("/:id", Get(deps))
	router.DELETE("/:id", Delete(deps))
}
