package subscriptions

import (
	"context"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/castkeep/castkeep-api/internal/fsutil"
	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/catalog"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	"github.com/castkeep/castkeep-api/internal/services/inventory"
	"github.com/castkeep/castkeep-api/internal/services/library"
	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

// Limits clamps caller-supplied scan and download numbers
type Limits struct {
	ScanLimitDefault     int
	ScanLimitMax         int
	DownloadCountDefault int
	DownloadCountMax     int
}

type service struct {
	registry    *Registry
	fetcher     feed.Fetcher
	cover       CoverFetcher
	host        library.Host
	store       *catalog.Store
	syncer      Syncer
	podcastsDir string
	prefix      string
	limits      Limits
}

// NewService wires the subscription lifecycle service
func NewService(
	registry *Registry,
	fetcher feed.Fetcher,
	cover CoverFetcher,
	host library.Host,
	store *catalog.Store,
	syncer Syncer,
	podcastsDir, prefix string,
	limits Limits,
) Service {
	return &service{
		registry:    registry,
		fetcher:     fetcher,
		cover:       cover,
		host:        host,
		store:       store,
		syncer:      syncer,
		podcastsDir: podcastsDir,
		prefix:      prefix,
		limits:      limits,
	}
}

func (s *service) clampScanLimit(n int) int {
	if n <= 0 {
		return s.limits.ScanLimitDefault
	}
	if n > s.limits.ScanLimitMax {
		return s.limits.ScanLimitMax
	}
	return n
}

func (s *service) clampDownloadCount(n int) int {
	if n < 0 {
		return s.limits.DownloadCountDefault
	}
	if n > s.limits.DownloadCountMax {
		return s.limits.DownloadCountMax
	}
	return n
}

func validateFeedURL(rss string) error {
	u, err := url.Parse(rss)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.ValidationError("rss", "must be an absolute http or https URL")
	}
	return nil
}

// Subscribe registers (or re-registers) a feed, prepares its folder and
// cover, and runs the initial download pass. Calling it again with the
// same URL refreshes the record instead of duplicating it.
func (s *service) Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error) {
	rss := NormalizeURL(req.RSS)
	if rss == "" {
		return nil, apperrors.MissingFieldError("rss")
	}
	if err := validateFeedURL(rss); err != nil {
		return nil, err
	}

	scanLimit := s.clampScanLimit(req.ScanLimit)
	downloadCount := s.clampDownloadCount(req.DownloadCount)

	now := time.Now().UTC()
	var sub models.Subscription
	if existing, err := s.registry.Get(rss); err == nil {
		sub = *existing
	} else {
		sub = models.Subscription{URL: rss, AddedAt: now}
	}

	// A light probe fills in title and cover for feeds we have not seen.
	// Three items is enough to learn the channel metadata.
	if sub.Title == "" || sub.CoverURL == "" {
		probe, err := s.fetcher.Fetch(ctx, rss, 3)
		if err != nil {
			if sub.Title == "" {
				return nil, err
			}
			log.Printf("[WARN] Feed probe failed for %s, keeping stored metadata: %v", rss, err)
		} else {
			if sub.Title == "" {
				sub.Title = probe.Title
			}
			if sub.CoverURL == "" {
				sub.CoverURL = probe.ImageURL
			}
		}
	}

	if sub.Folder == "" {
		sub.Folder = SanitizeFolder(sub.Title, rss)
		sub.Dir = filepath.Join(s.podcastsDir, sub.Folder)
		sub.Prefix = s.prefix + "/" + sub.Folder
		sub.Playlist = filepath.Join(sub.Dir, sub.Folder+".m3u")
		sub.Catalog = filepath.Join(sub.Dir, "episodes.json")
	}
	sub.ScanLimit = scanLimit
	sub.DownloadCount = downloadCount
	sub.AutoDownload = req.AutoDownload
	sub.UpdatedAt = now

	if err := os.MkdirAll(sub.Dir, 0755); err != nil {
		return nil, apperrors.IOError("mkdir", sub.Dir, err)
	}

	if err := s.registry.Upsert(sub); err != nil {
		return nil, err
	}

	result := &SubscribeResult{Subscription: sub}
	result.Cover = s.refreshCover(ctx, &sub)

	work, err := s.syncer.SyncInitial(ctx, &sub, scanLimit, downloadCount)
	if err != nil {
		// The record exists and the folder is ready; report the sync
		// failure inside the envelope rather than undoing the subscribe
		log.Printf("[ERROR] Initial sync failed for %s: %v", rss, err)
		result.Work = &models.WorkSummary{}
		return result, nil
	}
	result.Work = work

	sub.DownloadedCount = len(inventory.Scan(sub.Dir))
	if updated, err := s.registry.Update(rss, func(r *models.Subscription) {
		r.DownloadedCount = sub.DownloadedCount
	}); err == nil {
		result.Subscription = *updated
	}

	return result, nil
}

// refreshCover downloads the channel cover into the subscription folder
// and pushes it to the library host, best-effort on both legs
func (s *service) refreshCover(ctx context.Context, sub *models.Subscription) CoverResult {
	var res CoverResult
	if sub.CoverURL == "" {
		return res
	}

	data, err := s.cover.FetchBytes(ctx, sub.CoverURL)
	if err != nil {
		res.Error = err.Error()
		log.Printf("[WARN] Cover fetch failed for %s: %v", sub.Folder, err)
		return res
	}

	coverPath := filepath.Join(sub.Dir, "cover.jpg")
	if err := fsutil.WriteFileAtomic(coverPath, data, 0644); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Fetched = true

	if err := s.host.PushCover(ctx, coverPath, sub.Folder+".jpg"); err != nil {
		res.Error = err.Error()
		log.Printf("[WARN] Cover push failed for %s: %v", sub.Folder, err)
		return res
	}
	res.Pushed = true

	return res
}

// UpdateSettings changes the per-subscription flags
func (s *service) UpdateSettings(ctx context.Context, rss string, autoDownload bool) (*models.Subscription, error) {
	rss = NormalizeURL(rss)
	if rss == "" {
		return nil, apperrors.MissingFieldError("rss")
	}

	return s.registry.Update(rss, func(sub *models.Subscription) {
		sub.AutoDownload = autoDownload
		sub.UpdatedAt = time.Now().UTC()
	})
}

// Unsubscribe removes the registry record. Downloaded files, catalog and
// playlist stay on disk.
func (s *service) Unsubscribe(ctx context.Context, rss string) (*models.Subscription, error) {
	rss = NormalizeURL(rss)
	if rss == "" {
		return nil, apperrors.MissingFieldError("rss")
	}
	return s.registry.Remove(rss)
}

// List returns the registry enriched with live catalog state
func (s *service) List(ctx context.Context) ([]models.SubscriptionInfo, error) {
	subs, err := s.registry.List()
	if err != nil {
		return nil, err
	}

	infos := make([]models.SubscriptionInfo, 0, len(subs))
	for _, sub := range subs {
		info := models.SubscriptionInfo{
			Subscription: sub,
			CatalogCount: s.store.Count(sub.Catalog),
		}
		if st, err := os.Stat(sub.Playlist); err == nil {
			mt := st.ModTime()
			info.PlaylistBuilt = &mt
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// RefreshCounts recounts downloaded files per subscription and persists
// the counts back into the registry
func (s *service) RefreshCounts(ctx context.Context) ([]models.SubscriptionInfo, error) {
	subs, err := s.registry.List()
	if err != nil {
		return nil, err
	}

	for _, sub := range subs {
		count := len(inventory.Scan(sub.Dir))
		if count == sub.DownloadedCount {
			continue
		}
		if _, err := s.registry.Update(sub.URL, func(r *models.Subscription) {
			r.DownloadedCount = count
		}); err != nil {
			log.Printf("[WARN] Could not persist count for %s: %v", sub.URL, err)
		}
	}

	return s.List(ctx)
}
