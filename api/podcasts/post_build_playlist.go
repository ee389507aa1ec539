package podcasts

import (
	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
	syncservice "github.com/castkeep/castkeep-api/internal/services/sync"
)

// BuildPlaylistRequest is the build-playlist request body
type BuildPlaylistRequest struct {
	RSS         string `json:"rss" binding:"required"`
	Name        string `json:"name"`
	NewestFirst bool   `json:"newestFirst"`
	Limit       int    `json:"limit"`
}

// PostBuildPlaylist writes a playlist straight from the subscription's
// directory listing
func PostBuildPlaylist(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BuildPlaylistRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		result, err := deps.Sync.BuildPlaylistFromDirectory(c.Request.Context(), syncservice.BuildPlaylistRequest{
			RSS:         req.RSS,
			Name:        req.Name,
			NewestFirst: req.NewestFirst,
			Limit:       req.Limit,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{"playlist": result})
	}
}
