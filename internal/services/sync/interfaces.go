package sync

import (
	"context"

	"github.com/castkeep/castkeep-api/internal/models"
)

// DownloadOneRequest targets a single episode, typically straight from an
// episodes/list response
type DownloadOneRequest struct {
	RSS          string
	ID           string
	EnclosureURL string
	ImageURL     string
	Title        string
	Date         string
	GUID         string
}

// BuildPlaylistRequest builds a playlist from the raw directory listing
// rather than the catalog
type BuildPlaylistRequest struct {
	RSS         string
	Name        string
	NewestFirst bool
	Limit       int
}

// PlaylistResult reports a built playlist
type PlaylistResult struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// EpisodesView is the merged feed+disk episode listing for one
// subscription
type EpisodesView struct {
	ShowTitle  string           `json:"showTitle"`
	ShowImage  string           `json:"showImage,omitempty"`
	Downloaded int              `json:"downloaded"`
	Episodes   []models.Episode `json:"episodes"`
}

// RefreshResult pairs a subscription with its refresh outcome
type RefreshResult struct {
	URL     string              `json:"url"`
	Folder  string              `json:"folder"`
	Summary *models.WorkSummary `json:"summary,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// CoverFetcher pulls small remote resources like channel art into memory
type CoverFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Service orchestrates feed reconciliation, downloads and catalog upkeep
type Service interface {
	DownloadLatest(ctx context.Context, rss string, count int) (*models.WorkSummary, error)
	DownloadOne(ctx context.Context, req DownloadOneRequest) (*InstallResult, error)
	SyncInitial(ctx context.Context, sub *models.Subscription, limit, count int) (*models.WorkSummary, error)
	RefreshOne(ctx context.Context, sub *models.Subscription) (*models.WorkSummary, error)
	RefreshAll(ctx context.Context) ([]RefreshResult, error)
	ListEpisodes(ctx context.Context, rss string, limit int) (*EpisodesView, error)
	EpisodeStatus(ctx context.Context, rss string, limit int) (*EpisodesView, error)
	DeleteEpisodes(ctx context.Context, rss string, keys []string) (*models.DeleteReport, error)
	BuildPlaylistFromDirectory(ctx context.Context, req BuildPlaylistRequest) (*PlaylistResult, error)
}
