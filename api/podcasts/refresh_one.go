package podcasts

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
	"github.com/castkeep/castkeep-api/internal/models"
)

// RefreshOneRequest addresses one subscription by feed URL or by its
// playlist path
type RefreshOneRequest struct {
	RSS      string `json:"rss" form:"rss"`
	Playlist string `json:"playlist" form:"playlist"`
}

// RefreshOne rebuilds a single subscription's catalog and playlist. GET
// takes query parameters, POST a JSON body.
func RefreshOne(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshOneRequest
		if c.Request.Method == http.MethodGet {
			req.RSS = c.Query("rss")
			req.Playlist = c.Query("playlist")
		} else if !types.BindJSONOrError(c, &req) {
			return
		}

		if req.RSS == "" && req.Playlist == "" {
			types.SendBadRequest(c, "rss or playlist is required")
			return
		}

		var (
			sub *models.Subscription
			err error
		)
		if req.RSS != "" {
			sub, err = deps.Registry.Get(req.RSS)
		} else {
			sub, err = deps.Registry.GetByPlaylist(req.Playlist)
		}
		if err != nil {
			types.SendError(c, err)
			return
		}

		summary, err := deps.Sync.RefreshOne(c.Request.Context(), sub)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendOK(c, gin.H{
			"folder":  sub.Folder,
			"summary": summary,
		})
	}
}
