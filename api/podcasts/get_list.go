package podcasts

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// GetList returns all subscriptions enriched with catalog counts
func GetList(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := deps.Subscriptions.List(c.Request.Context())
		if err != nil {
			log.Printf("[ERROR] Failed to list subscriptions: %v", err)
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{
			"subscriptions": subs,
			"count":         len(subs),
		})
	}
}
