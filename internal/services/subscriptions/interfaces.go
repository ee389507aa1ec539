package subscriptions

import (
	"context"

	"github.com/castkeep/castkeep-api/internal/models"
)

// SubscribeRequest carries the subscribe parameters after HTTP binding
type SubscribeRequest struct {
	RSS           string
	ScanLimit     int
	DownloadCount int
	AutoDownload  bool
}

// CoverResult reports the best-effort cover work done during subscribe
type CoverResult struct {
	Fetched bool   `json:"fetched"`
	Pushed  bool   `json:"pushed"`
	Error   string `json:"error,omitempty"`
}

// SubscribeResult is the full outcome of a subscribe call
type SubscribeResult struct {
	Subscription models.Subscription `json:"subscription"`
	Work         *models.WorkSummary `json:"work,omitempty"`
	Cover        CoverResult         `json:"cover"`
}

// Service defines the subscription lifecycle operations
type Service interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error)
	UpdateSettings(ctx context.Context, rss string, autoDownload bool) (*models.Subscription, error)
	Unsubscribe(ctx context.Context, rss string) (*models.Subscription, error)
	List(ctx context.Context) ([]models.SubscriptionInfo, error)
	RefreshCounts(ctx context.Context) ([]models.SubscriptionInfo, error)
}

// Syncer runs the initial download pass for a fresh subscription. Defined
// here so the sync package can satisfy it without an import cycle.
type Syncer interface {
	SyncInitial(ctx context.Context, sub *models.Subscription, limit, count int) (*models.WorkSummary, error)
}

// CoverFetcher retrieves small remote resources into memory
type CoverFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}
