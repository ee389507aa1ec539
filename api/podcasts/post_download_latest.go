package podcasts

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// DownloadLatestRequest is the download-latest request body
type DownloadLatestRequest struct {
	RSS   string `json:"rss" binding:"required"`
	Count int    `json:"count"`
}

// PostDownloadLatest downloads the newest missing episodes for one
// subscription
func PostDownloadLatest(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DownloadLatestRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}
		if req.Count < 0 {
			types.SendBadRequest(c, "count must not be negative")
			return
		}

		summary, err := deps.Sync.DownloadLatest(c.Request.Context(), req.RSS, req.Count)
		if err != nil {
			log.Printf("[ERROR] Download latest failed for %s: %v", req.RSS, err)
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{"summary": summary})
	}
}
