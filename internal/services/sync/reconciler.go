package sync

import (
	"sort"
	"time"

	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	"github.com/castkeep/castkeep-api/internal/services/inventory"
)

// FeedEpisode is a feed item with its resolved identifier
type FeedEpisode struct {
	feed.Item
	ID string
}

// formatDate renders a published time as the catalog's YYYY-MM-DD form
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// Reconcile merges the feed scan window with the directory inventory into
// one episode list. Feed items get their download state; local files whose
// identifier fell out of the window appear as orphans so nothing on disk
// is ever invisible. Order: published desc, unknown dates last, ties on
// title.
func Reconcile(eps []FeedEpisode, inv map[string]inventory.FileEntry, prefix string) []models.Episode {
	episodes := make([]models.Episode, 0, len(eps)+len(inv))
	seen := make(map[string]bool, len(eps))

	for _, fe := range eps {
		ep := models.Episode{
			ID:           fe.ID,
			Key:          models.EntryKey(fe.ID),
			Title:        fe.Title,
			Date:         formatDate(fe.Published),
			Published:    fe.Published,
			EnclosureURL: fe.EnclosureURL,
			ImageURL:     fe.ImageURL,
			InFeed:       true,
		}
		if file, ok := inv[fe.ID]; ok {
			ep.Downloaded = true
			ep.Filename = file.Filename
			ep.LibraryPath = prefix + "/" + file.Filename
		}
		seen[fe.ID] = true
		episodes = append(episodes, ep)
	}

	orphans := make([]models.Episode, 0)
	for id, file := range inv {
		if seen[id] {
			continue
		}
		orphans = append(orphans, models.Episode{
			ID:          id,
			Key:         models.EntryKey(id),
			Title:       models.OrphanTitle,
			Downloaded:  true,
			Filename:    file.Filename,
			LibraryPath: prefix + "/" + file.Filename,
		})
	}
	// Map order is random; keep orphan order deterministic
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID < orphans[j].ID })
	episodes = append(episodes, orphans...)

	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i], episodes[j]
		switch {
		case a.Published == nil && b.Published == nil:
			return a.Title < b.Title
		case a.Published == nil:
			return false
		case b.Published == nil:
			return true
		case !a.Published.Equal(*b.Published):
			return a.Published.After(*b.Published)
		default:
			return a.Title < b.Title
		}
	})

	return episodes
}

// InstallCandidates picks the window a download pass works through: the
// newest n in-feed episodes that carry an enclosure. Already-installed
// episodes stay inside the window so the pass reports them as skipped
// instead of reaching deeper into the feed for replacements.
func InstallCandidates(episodes []models.Episode, n int) []models.Episode {
	var out []models.Episode
	for _, ep := range episodes {
		if !ep.InFeed || ep.EnclosureURL == "" {
			continue
		}
		out = append(out, ep)
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out
}
