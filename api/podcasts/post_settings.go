package podcasts

import (
	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// SettingsRequest is the subscription settings request body
type SettingsRequest struct {
	RSS          string `json:"rss" binding:"required"`
	AutoDownload bool   `json:"autoDownload"`
}

// PostSettings updates per-subscription settings
func PostSettings(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SettingsRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		sub, err := deps.Subscriptions.UpdateSettings(c.Request.Context(), req.RSS, req.AutoDownload)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{"subscription": sub})
	}
}
