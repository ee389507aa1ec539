package podcasts

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// EpisodesDeleteRequest is the episodes/delete request body
type EpisodesDeleteRequest struct {
	RSS  string   `json:"rss" binding:"required"`
	Keys []string `json:"keys" binding:"required"`
}

// PostEpisodesDelete removes catalog entries and their files
func PostEpisodesDelete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EpisodesDeleteRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}
		if len(req.Keys) == 0 {
			types.SendBadRequest(c, "keys must not be empty")
			return
		}

		report, err := deps.Sync.DeleteEpisodes(c.Request.Context(), req.RSS, req.Keys)
		if err != nil {
			log.Printf("[ERROR] Episode delete failed for %s: %v", req.RSS, err)
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{"report": report})
	}
}
