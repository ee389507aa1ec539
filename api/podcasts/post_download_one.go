package podcasts

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	syncservice "github.com/castkeep/castkeep-api/internal/services/sync"
)

// DownloadOneRequest is the download-one request body
type DownloadOneRequest struct {
	RSS       string `json:"rss" binding:"required"`
	ID        string `json:"id"`
	Enclosure string `json:"enclosure" binding:"required"`
	ImageURL  string `json:"imageUrl"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	GUID      string `json:"guid"`
}

// PostDownloadOne installs a single explicitly addressed episode
func PostDownloadOne(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DownloadOneRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}
		if req.ID != "" && !feed.IsValidID(req.ID) {
			types.SendBadRequest(c, "id must be 12 lowercase hex characters")
			return
		}

		result, err := deps.Sync.DownloadOne(c.Request.Context(), syncservice.DownloadOneRequest{
			RSS:          req.RSS,
			ID:           req.ID,
			EnclosureURL: req.Enclosure,
			ImageURL:     req.ImageURL,
			Title:        req.Title,
			Date:         req.Date,
			GUID:         req.GUID,
		})
		if err != nil {
			log.Printf("[ERROR] Download one failed for %s: %v", req.RSS, err)
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{"episode": result})
	}
}
