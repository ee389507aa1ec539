package podcasts

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// GetDownloadsRecent returns recent download history, optionally scoped
// to one subscription folder
func GetDownloadsRecent(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		folder := c.Query("folder")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		records, err := deps.Downloads.Recent(c.Request.Context(), folder, limit)
		if err != nil {
			types.SendError(c, err)
			return
		}

		stats, err := deps.Downloads.Stats(c.Request.Context())
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{
			"records": records,
			"count":   len(records),
			"stats":   stats,
		})
	}
}
