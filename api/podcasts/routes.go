package podcasts

import (
	"github.com/gin-gonic/gin"

	"github.com/castkeep/castkeep-api/api/types"
)

// RegisterRoutes registers podcast subscription and sync routes.
// readMiddleware rate-limits cheap reads; syncMiddleware rate-limits
// operations that fetch feeds or download media.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies, readMiddleware, syncMiddleware gin.HandlerFunc) {
	// Subscription lifecycle
	router.GET("", readMiddleware, GetList(deps))
	router.POST("/subscribe", syncMiddleware, PostSubscribe(deps))
	router.POST("/subscription/settings", readMiddleware, PostSettings(deps))
	router.POST("/unsubscribe", readMiddleware, PostUnsubscribe(deps))

	// Catalog and playlist maintenance
	router.POST("/refresh", syncMiddleware, PostRefresh(deps))
	router.GET("/refresh", readMiddleware, GetRefresh(deps))
	router.POST("/refresh-one", syncMiddleware, RefreshOne(deps))
	router.GET("/refresh-one", syncMiddleware, RefreshOne(deps))
	router.POST("/build-playlist", readMiddleware, PostBuildPlaylist(deps))

	// Episode downloads
	router.POST("/download-latest", syncMiddleware, PostDownloadLatest(deps))
	router.POST("/download-one", syncMiddleware, PostDownloadOne(deps))

	// Episode views and deletion
	router.POST("/episodes/list", syncMiddleware, PostEpisodesList(deps))
	router.GET("/episodes/status", syncMiddleware, GetEpisodesStatus(deps))
	router.POST("/episodes/delete", readMiddleware, PostEpisodesDelete(deps))

	// Download history
	router.GET("/downloads/recent", readMiddleware, GetDownloadsRecent(deps))
}
