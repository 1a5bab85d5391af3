package upload

import (
	"github.com/demodrop/engine/api/types"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all upload routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("", Post(deps))
}
