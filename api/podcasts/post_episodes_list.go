package podcasts

import (
	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// EpisodesListRequest is the episodes/list request body
type EpisodesListRequest struct {
	RSS   string `json:"rss" binding:"required"`
	Limit int    `json:"limit"`
}

// PostEpisodesList returns the merged feed+disk episode view
func PostEpisodesList(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EpisodesListRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		view, err := deps.Sync.ListEpisodes(c.Request.Context(), req.RSS, req.Limit)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{
			"showTitle":  view.ShowTitle,
			"showImage":  view.ShowImage,
			"downloaded": view.Downloaded,
			"episodes":   view.Episodes,
		})
	}
}
