package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Build information, injected by the serve command at startup
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Get handles version requests
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":      "castkeep-api",
			"version":   Version,
			"gitCommit": GitCommit,
			"buildDate": BuildDate,
			"status":    "running",
		})
	}
}
