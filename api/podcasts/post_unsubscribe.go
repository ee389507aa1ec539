package podcasts

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// UnsubscribeRequest is the unsubscribe request body
type UnsubscribeRequest struct {
	RSS string `json:"rss" binding:"required"`
}

// PostUnsubscribe removes the registry record. Downloaded files and the
// catalog stay on disk.
func PostUnsubscribe(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UnsubscribeRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		sub, err := deps.Subscriptions.Unsubscribe(c.Request.Context(), req.RSS)
		if err != nil {
			types.SendError(c, err)
			return
		}

		log.Printf("[INFO] Unsubscribed %s (files retained)", req.RSS)
		types.SendOK(c, gin.H{"removed": sub})
	}
}
