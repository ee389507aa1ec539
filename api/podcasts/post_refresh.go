package podcasts

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// PostRefresh rebuilds every subscription's catalog and playlist from
// disk and feed state
func PostRefresh(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := deps.Sync.RefreshAll(c.Request.Context())
		if err != nil {
			log.Printf("[ERROR] Refresh all failed: %v", err)
			types.SendError(c, err)
			return
		}

		failed := 0
		for _, r := range results {
			if r.Error != "" {
				failed++
			}
		}

		types.SendOK(c, gin.H{
			"results": results,
			"count":   len(results),
			"failed":  failed,
		})
	}
}
