package sync

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/castkeep/castkeep-api/internal/fsutil"
	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/catalog"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	"github.com/castkeep/castkeep-api/internal/services/inventory"
	"github.com/castkeep/castkeep-api/internal/services/library"
	"github.com/castkeep/castkeep-api/internal/services/subscriptions"
	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

type service struct {
	registry  *subscriptions.Registry
	fetcher   feed.Fetcher
	cover     CoverFetcher
	identity  *feed.Identity
	installer *Installer
	store     *catalog.Store
	host      library.Host

	defaultScanLimit   int
	defaultDownloadMax int
}

// NewService wires the sync orchestrator
func NewService(
	registry *subscriptions.Registry,
	fetcher feed.Fetcher,
	cover CoverFetcher,
	identity *feed.Identity,
	installer *Installer,
	store *catalog.Store,
	host library.Host,
	defaultScanLimit, defaultDownloadMax int,
) Service {
	return &service{
		registry:           registry,
		fetcher:            fetcher,
		cover:              cover,
		identity:           identity,
		installer:          installer,
		store:              store,
		host:               host,
		defaultScanLimit:   defaultScanLimit,
		defaultDownloadMax: defaultDownloadMax,
	}
}

func (s *service) scanLimit(sub *models.Subscription) int {
	if sub.ScanLimit > 0 {
		return sub.ScanLimit
	}
	return s.defaultScanLimit
}

// resolveIDs computes identifiers for the scan window. Feeds with GUIDs
// never touch the network here; only GUID-less items pay for redirect
// resolution.
func (s *service) resolveIDs(ctx context.Context, items []feed.Item) []FeedEpisode {
	eps := make([]FeedEpisode, 0, len(items))
	for _, it := range items {
		if it.EnclosureURL == "" && it.GUID == "" {
			continue
		}
		seedURL := it.EnclosureURL
		if it.GUID == "" {
			seedURL = s.identity.CanonicalURL(ctx, it.EnclosureURL)
		}
		eps = append(eps, FeedEpisode{Item: it, ID: feed.EpisodeID(it.GUID, seedURL)})
	}
	return eps
}

// reconciled fetches the scan window and merges it with the directory
func (s *service) reconciled(ctx context.Context, sub *models.Subscription, limit int) (*feed.Feed, []models.Episode, error) {
	f, err := s.fetcher.Fetch(ctx, sub.URL, limit)
	if err != nil {
		return nil, nil, err
	}

	inv := inventory.Scan(sub.Dir)
	episodes := Reconcile(s.resolveIDs(ctx, f.Items), inv, sub.Prefix)
	return f, episodes, nil
}

// installBatch downloads candidates sequentially. One bad episode never
// sinks the batch; the summary carries the damage.
func (s *service) installBatch(ctx context.Context, sub *models.Subscription, candidates []models.Episode) (map[string]models.CatalogEntry, *models.WorkSummary) {
	summary := &models.WorkSummary{}
	entries := make(map[string]models.CatalogEntry)

	for _, ep := range candidates {
		res, err := s.installer.Install(ctx, InstallRequest{
			Sub:          sub,
			ID:           ep.ID,
			Title:        ep.Title,
			Date:         ep.Date,
			EnclosureURL: ep.EnclosureURL,
			ImageURL:     ep.ImageURL,
		})
		if err != nil {
			summary.Failed++
			log.Printf("[ERROR] Install failed for %s (%s): %v", ep.ID, ep.Title, err)
			continue
		}
		if res.Skipped {
			summary.Skipped++
		} else {
			summary.Downloaded++
		}
		entries[models.EntryKey(res.ID)] = res.Entry
	}

	return entries, summary
}

// publish pushes the freshly written playlist to the library host and
// asks it to rescan. Best-effort: local state is already consistent.
func (s *service) publish(ctx context.Context, sub *models.Subscription) {
	content, err := os.ReadFile(sub.Playlist)
	if err != nil {
		log.Printf("[WARN] Could not read playlist for publish: %v", err)
		return
	}
	if err := s.host.WritePlaylist(ctx, sub.Folder, string(content)); err != nil {
		log.Printf("[WARN] Remote playlist write failed for %s: %v", sub.Folder, err)
	}
	if err := s.host.Rescan(ctx, sub.Prefix); err != nil {
		log.Printf("[WARN] Library rescan failed for %s: %v", sub.Folder, err)
	}
}

func (s *service) finishSummary(sub *models.Subscription, doc *models.CatalogDocument, summary *models.WorkSummary) {
	summary.MapCount = len(doc.ItemsByKey)
	summary.M3UCount = strings.Count(catalog.FromCatalog(doc), "\n")
}

// validateSub guards against registry records that lost their derived
// paths, usually through hand-editing of the registry file
func validateSub(sub *models.Subscription) error {
	if sub.Dir == "" || sub.Prefix == "" || sub.Playlist == "" || sub.Catalog == "" {
		return apperrors.ConsistencyError("subscription "+sub.URL, "missing dir/prefix/playlist/catalog")
	}
	return nil
}

// refreshCover re-downloads the show cover next to the episodes. Channel
// art only; item images never become the folder cover. Best-effort on
// every leg.
func (s *service) refreshCover(ctx context.Context, sub *models.Subscription, f *feed.Feed) {
	if f.ImageURL == "" {
		log.Printf("[DEBUG] No show image for %s, cover unchanged", sub.Folder)
		return
	}

	data, err := s.cover.FetchBytes(ctx, f.ImageURL)
	if err != nil {
		log.Printf("[WARN] Cover refresh failed for %s: %v", sub.Folder, err)
		return
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(sub.Dir, "cover.jpg"), data, 0644); err != nil {
		log.Printf("[WARN] Could not write cover for %s: %v", sub.Folder, err)
	}
}

// DownloadLatest works through the newest count episodes of the feed,
// downloading the missing ones and reporting the rest as skipped
func (s *service) DownloadLatest(ctx context.Context, rss string, count int) (*models.WorkSummary, error) {
	sub, err := s.registry.Get(rss)
	if err != nil {
		return nil, err
	}
	if err := validateSub(sub); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = sub.DownloadCount
	}
	if count <= 0 || count > s.defaultDownloadMax {
		count = s.defaultDownloadMax
	}

	f, episodes, err := s.reconciled(ctx, sub, s.scanLimit(sub))
	if err != nil {
		return nil, err
	}
	s.refreshCover(ctx, sub, f)

	entries, summary := s.installBatch(ctx, sub, InstallCandidates(episodes, count))

	doc, err := s.store.Upsert(sub, entries)
	if err != nil {
		return nil, err
	}
	s.finishSummary(sub, doc, summary)
	s.publish(ctx, sub)
	s.persistCount(sub)

	return summary, nil
}

// DownloadOne installs a single explicitly addressed episode
func (s *service) DownloadOne(ctx context.Context, req DownloadOneRequest) (*InstallResult, error) {
	sub, err := s.registry.Get(req.RSS)
	if err != nil {
		return nil, err
	}
	if req.ID != "" && !feed.IsValidID(req.ID) {
		return nil, apperrors.ValidationError("id", "must be 12 lowercase hex characters")
	}

	res, err := s.installer.Install(ctx, InstallRequest{
		Sub:          sub,
		ID:           req.ID,
		GUID:         req.GUID,
		Title:        req.Title,
		Date:         req.Date,
		EnclosureURL: req.EnclosureURL,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Upsert(sub, map[string]models.CatalogEntry{
		models.EntryKey(res.ID): res.Entry,
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, sub)
	s.persistCount(sub)

	return res, nil
}

// SyncInitial is the subscribe-time pass: download the first batch, then
// rebuild catalog and playlist from what actually landed on disk
func (s *service) SyncInitial(ctx context.Context, sub *models.Subscription, limit, count int) (*models.WorkSummary, error) {
	if limit <= 0 {
		limit = s.defaultScanLimit
	}

	f, episodes, err := s.reconciled(ctx, sub, limit)
	if err != nil {
		return nil, err
	}

	var summary *models.WorkSummary
	if count > 0 {
		_, summary = s.installBatch(ctx, sub, InstallCandidates(episodes, count))
	} else {
		summary = &models.WorkSummary{}
	}

	doc, err := s.rebuild(ctx, sub, f)
	if err != nil {
		return nil, err
	}
	s.finishSummary(sub, doc, summary)
	s.publish(ctx, sub)

	return summary, nil
}

// rebuild reconstructs the catalog from disk, with feed metadata where
// the feed still remembers the episode
func (s *service) rebuild(ctx context.Context, sub *models.Subscription, f *feed.Feed) (*models.CatalogDocument, error) {
	inv := inventory.Scan(sub.Dir)

	meta := make(map[string]models.CatalogEntry)
	for _, fe := range s.resolveIDs(ctx, f.Items) {
		meta[fe.ID] = models.CatalogEntry{
			Artist:   sub.Title,
			Album:    sub.Title,
			Title:    fe.Title,
			Date:     formatDate(fe.Published),
			Genre:    "Podcast",
			ImageURL: fe.ImageURL,
		}
	}

	return s.store.Rebuild(sub, inv, meta)
}

// RefreshOne rebuilds one subscription's catalog and playlist without
// downloading anything
func (s *service) RefreshOne(ctx context.Context, sub *models.Subscription) (*models.WorkSummary, error) {
	f, err := s.fetcher.Fetch(ctx, sub.URL, s.scanLimit(sub))
	if err != nil {
		return nil, err
	}

	doc, err := s.rebuild(ctx, sub, f)
	if err != nil {
		return nil, err
	}

	summary := &models.WorkSummary{}
	s.finishSummary(sub, doc, summary)
	s.publish(ctx, sub)
	s.persistCount(sub)

	return summary, nil
}

// RefreshAll rebuilds every subscription, never stopping at the first
// broken feed
func (s *service) RefreshAll(ctx context.Context) ([]RefreshResult, error) {
	subs, err := s.registry.List()
	if err != nil {
		return nil, err
	}

	results := make([]RefreshResult, 0, len(subs))
	for i := range subs {
		sub := subs[i]
		res := RefreshResult{URL: sub.URL, Folder: sub.Folder}
		if summary, err := s.RefreshOne(ctx, &sub); err != nil {
			res.Error = err.Error()
			log.Printf("[ERROR] Refresh failed for %s: %v", sub.URL, err)
		} else {
			res.Summary = summary
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *service) episodesView(ctx context.Context, rss string, limit int) (*models.Subscription, *feed.Feed, *EpisodesView, error) {
	sub, err := s.registry.Get(rss)
	if err != nil {
		return nil, nil, nil, err
	}
	if limit <= 0 {
		limit = s.scanLimit(sub)
	}

	f, episodes, err := s.reconciled(ctx, sub, limit)
	if err != nil {
		return nil, nil, nil, err
	}

	view := &EpisodesView{
		ShowTitle: firstNonEmpty(sub.Title, f.Title),
		ShowImage: firstNonEmpty(sub.CoverURL, f.ImageURL),
		Episodes:  episodes,
	}
	for _, ep := range episodes {
		if ep.Downloaded {
			view.Downloaded++
		}
	}
	return sub, f, view, nil
}

// ListEpisodes returns the merged feed+disk view
func (s *service) ListEpisodes(ctx context.Context, rss string, limit int) (*EpisodesView, error) {
	_, _, view, err := s.episodesView(ctx, rss, limit)
	return view, err
}

// EpisodeStatus is the polling variant of ListEpisodes: same merged
// view, plus a cover refresh so the show art tracks the feed
func (s *service) EpisodeStatus(ctx context.Context, rss string, limit int) (*EpisodesView, error) {
	sub, f, view, err := s.episodesView(ctx, rss, limit)
	if err != nil {
		return nil, err
	}
	s.refreshCover(ctx, sub, f)
	return view, nil
}

// DeleteEpisodes removes catalog entries and their files
func (s *service) DeleteEpisodes(ctx context.Context, rss string, keys []string) (*models.DeleteReport, error) {
	sub, err := s.registry.Get(rss)
	if err != nil {
		return nil, err
	}

	report, _, err := s.store.Delete(sub, keys)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, sub)
	s.persistCount(sub)

	return report, nil
}

// BuildPlaylistFromDirectory writes a playlist straight from the folder
// contents, catalog not consulted
func (s *service) BuildPlaylistFromDirectory(ctx context.Context, req BuildPlaylistRequest) (*PlaylistResult, error) {
	sub, err := s.registry.Get(req.RSS)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = sub.Folder
	}

	files := inventory.ScanAudio(sub.Dir)
	content := catalog.FromDirectory(files, sub.Prefix, req.NewestFirst, req.Limit)

	path := sub.Playlist
	if name != sub.Folder {
		path = strings.TrimSuffix(sub.Playlist, sub.Folder+".m3u") + name + ".m3u"
	}
	if err := fsutil.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return nil, apperrors.IOError("write", path, err)
	}

	if err := s.host.WritePlaylist(ctx, name, content); err != nil {
		log.Printf("[WARN] Remote playlist write failed for %s: %v", name, err)
	}
	if err := s.host.Rescan(ctx, sub.Prefix); err != nil {
		log.Printf("[WARN] Library rescan failed for %s: %v", name, err)
	}

	return &PlaylistResult{
		Name:  name,
		Path:  path,
		Count: strings.Count(content, "\n"),
	}, nil
}

// persistCount refreshes the registry's downloaded-file count
func (s *service) persistCount(sub *models.Subscription) {
	count := len(inventory.Scan(sub.Dir))
	if _, err := s.registry.Update(sub.URL, func(r *models.Subscription) {
		r.DownloadedCount = count
	}); err != nil {
		log.Printf("[WARN] Could not persist downloaded count for %s: %v", sub.URL, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
