package api

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/health"
	"github.com/castkeep/castkeep-api/api/podcasts"
	"github.com/castkeep/castkeep-api/api/types"
	"github.com/castkeep/castkeep-api/api/version"
	"github.com/castkeep/castkeep-api/pkg/config"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil {
		deps = &types.Dependencies{}
	}

	// Public routes (no rate limiting, no token)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	engine.NoRoute(NotFoundHandler())

	// API v1 routes, optionally guarded by a static token
	v1 := engine.Group("/api/v1")
	v1.Use(BearerToken(config.GetString("security.api_token")))

	podcastGroup := v1.Group("/podcasts")

	// Read paths are cheap; sync paths fan out into feed fetches and
	// downloads, so they get a much tighter budget
	readMiddleware := PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 10, 20)
	syncMiddleware := PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 1, 2)
	podcasts.RegisterRoutes(podcastGroup, deps, readMiddleware, syncMiddleware)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(404, types.ErrorResponse{
			Error:   "The requested endpoint was not found",
			Details: c.Request.URL.Path,
		})
	}
}
