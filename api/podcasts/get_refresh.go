package podcasts

import (
	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// GetRefresh recounts downloaded files for every subscription, persists
// the registry and returns the refreshed listing
func GetRefresh(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := deps.Subscriptions.RefreshCounts(c.Request.Context())
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{
			"subscriptions": subs,
			"count":         len(subs),
		})
	}
}
