package downloads

import (
	"context"

	"github.com/castkeep/castkeep-api/internal/models"
)

// Stats aggregates the history table for the downloads endpoint
type Stats struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Bytes     int64 `json:"bytes"`
}

// Repository persists download attempts
type Repository interface {
	Create(ctx context.Context, rec *models.DownloadRecord) error
	Recent(ctx context.Context, limit int) ([]models.DownloadRecord, error)
	RecentForSubscription(ctx context.Context, folder string, limit int) ([]models.DownloadRecord, error)
	Stats(ctx context.Context) (*Stats, error)
	PruneOlderThan(ctx context.Context, keep int) (int64, error)
}

// Service records download attempts and serves history queries. It
// satisfies the installer's Recorder.
type Service interface {
	Record(ctx context.Context, rec *models.DownloadRecord) error
	Recent(ctx context.Context, folder string, limit int) ([]models.DownloadRecord, error)
	Stats(ctx context.Context) (*Stats, error)
	Prune(ctx context.Context, keep int) (int64, error)
}
