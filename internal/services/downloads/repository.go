package downloads

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/castkeep/castkeep-api/internal/models"
)

// RepositoryImpl implements the Repository interface
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new download history repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Create inserts one download attempt
func (r *RepositoryImpl) Create(ctx context.Context, rec *models.DownloadRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// Recent returns the newest attempts across all subscriptions
func (r *RepositoryImpl) Recent(ctx context.Context, limit int) ([]models.DownloadRecord, error) {
	var records []models.DownloadRecord
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing download history: %w", err)
	}
	return records, nil
}

// RecentForSubscription returns the newest attempts for one folder
func (r *RepositoryImpl) RecentForSubscription(ctx context.Context, folder string, limit int) ([]models.DownloadRecord, error) {
	var records []models.DownloadRecord
	if err := r.db.WithContext(ctx).
		Where("subscription = ?", folder).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing download history for %s: %w", folder, err)
	}
	return records, nil
}

// Stats aggregates the full history table
func (r *RepositoryImpl) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	model := r.db.WithContext(ctx).Model(&models.DownloadRecord{})

	if err := model.Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("counting download history: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.DownloadRecord{}).
		Where("ok = ?", true).Count(&stats.Succeeded).Error; err != nil {
		return nil, fmt.Errorf("counting successful downloads: %w", err)
	}
	stats.Failed = stats.Total - stats.Succeeded

	var bytes sql.NullInt64
	if err := r.db.WithContext(ctx).Model(&models.DownloadRecord{}).
		Where("ok = ?", true).
		Select("SUM(bytes)").
		Scan(&bytes).Error; err != nil {
		return nil, fmt.Errorf("summing downloaded bytes: %w", err)
	}
	stats.Bytes = bytes.Int64

	return stats, nil
}

// PruneOlderThan deletes everything but the newest keep rows
func (r *RepositoryImpl) PruneOlderThan(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	subquery := r.db.Model(&models.DownloadRecord{}).
		Select("id").
		Order("id DESC").
		Limit(keep)

	result := r.db.WithContext(ctx).
		Where("id NOT IN (?)", subquery).
		Delete(&models.DownloadRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("pruning download history: %w", result.Error)
	}
	return result.RowsAffected, nil
}
