package podcasts

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
	"github.com/castkeep/castkeep-api/internal/services/subscriptions"
)

// SubscribeRequest is the subscribe request body
type SubscribeRequest struct {
	RSS          string `json:"rss" binding:"required"`
	Limit        int    `json:"limit"`
	Download     int    `json:"download"`
	AutoDownload bool   `json:"autoDownload"`
}

// PostSubscribe adds (or re-runs) a subscription
func PostSubscribe(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubscribeRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		result, err := deps.Subscriptions.Subscribe(c.Request.Context(), subscriptions.SubscribeRequest{
			RSS:           req.RSS,
			ScanLimit:     req.Limit,
			DownloadCount: req.Download,
			AutoDownload:  req.AutoDownload,
		})
		if err != nil {
			log.Printf("[ERROR] Subscribe failed for %s: %v", req.RSS, err)
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{
			"subscription": result.Subscription,
			"work":         result.Work,
			"cover":        result.Cover,
		})
	}
}
