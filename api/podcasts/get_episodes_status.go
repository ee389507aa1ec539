package podcasts

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// episodeStatus is the trimmed per-episode payload for polling clients
type episodeStatus struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Downloaded bool   `json:"downloaded"`
	Filename   string `json:"filename"`
}

// GetEpisodesStatus returns a compact download-state view for polling
func GetEpisodesStatus(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		rss := c.Query("rss")
		if rss == "" {
			types.SendBadRequest(c, "rss is required")
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		view, err := deps.Sync.EpisodeStatus(c.Request.Context(), rss, limit)
		if err != nil {
			types.SendError(c, err)
			return
		}

		statuses := make([]episodeStatus, 0, len(view.Episodes))
		for _, ep := range view.Episodes {
			statuses = append(statuses, episodeStatus{
				ID:         ep.ID,
				Title:      ep.Title,
				Date:       ep.Date,
				Downloaded: ep.Downloaded,
				Filename:   ep.Filename,
			})
		}

		types.SendOK(c, gin.H{
			"downloaded": view.Downloaded,
			"episodes":   statuses,
		})
	}
}
