package downloads

import (
	"context"

	"github.com/castkeep/castkeep-api/internal/models"
	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

const defaultHistoryLimit = 50

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository Repository
}

// NewService creates a new download history service
func NewService(repository Repository) Service {
	return &ServiceImpl{repository: repository}
}

// Record stores one download attempt
func (s *ServiceImpl) Record(ctx context.Context, rec *models.DownloadRecord) error {
	if rec.URL == "" {
		return apperrors.MissingFieldError("url")
	}
	if err := s.repository.Create(ctx, rec); err != nil {
		return apperrors.DatabaseError("record download", err)
	}
	return nil
}

// Recent returns the newest attempts, optionally scoped to one
// subscription folder
func (s *ServiceImpl) Recent(ctx context.Context, folder string, limit int) ([]models.DownloadRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var (
		records []models.DownloadRecord
		err     error
	)
	if folder == "" {
		records, err = s.repository.Recent(ctx, limit)
	} else {
		records, err = s.repository.RecentForSubscription(ctx, folder, limit)
	}
	if err != nil {
		return nil, apperrors.DatabaseError("list download history", err)
	}
	return records, nil
}

// Stats aggregates the history table
func (s *ServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repository.Stats(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("download stats", err)
	}
	return stats, nil
}

// Prune trims the table down to the newest keep rows
func (s *ServiceImpl) Prune(ctx context.Context, keep int) (int64, error) {
	deleted, err := s.repository.PruneOlderThan(ctx, keep)
	if err != nil {
		return 0, apperrors.DatabaseError("prune download history", err)
	}
	return deleted, nil
}
