package feed

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

// Item is one episode as described by the feed
type Item struct {
	Title        string
	Published    *time.Time
	GUID         string
	EnclosureURL string
	ImageURL     string
}

// Feed is the scan window of a remote feed
type Feed struct {
	Title    string
	ImageURL string
	Items    []Item
}

// Fetcher retrieves and normalizes remote syndication feeds
type Fetcher interface {
	// Fetch returns up to limit most-recent items. limit <= 0 means all.
	Fetch(ctx context.Context, url string, limit int) (*Feed, error)
}

// GofeedFetcher is the gofeed-backed Fetcher
type GofeedFetcher struct {
	parser *gofeed.Parser
}

// NewFetcher creates a fetcher with its own HTTP client
func NewFetcher(timeout time.Duration, userAgent string) *GofeedFetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}
	return &GofeedFetcher{parser: parser}
}

// Fetch implements Fetcher
func (f *GofeedFetcher) Fetch(ctx context.Context, url string, limit int) (*Feed, error) {
	raw, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNetwork, "feed fetch failed").
			WithDetail("url", url)
	}

	feed := &Feed{
		Title:    strings.TrimSpace(raw.Title),
		ImageURL: showImage(raw),
	}

	items := make([]Item, 0, len(raw.Items))
	for _, it := range raw.Items {
		if it == nil {
			continue
		}
		items = append(items, Item{
			Title:        strings.TrimSpace(it.Title),
			Published:    it.PublishedParsed,
			GUID:         strings.TrimSpace(it.GUID),
			EnclosureURL: enclosureURL(it),
			ImageURL:     itemImage(it, feed.ImageURL),
		})
	}

	// Most feeds are newest-first already; enforce it so the scan window
	// is always the newest N items
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Published, items[j].Published
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	feed.Items = items

	return feed, nil
}

// showImage prefers the iTunes channel image over the plain RSS one
func showImage(raw *gofeed.Feed) string {
	if raw.ITunesExt != nil && raw.ITunesExt.Image != "" {
		return raw.ITunesExt.Image
	}
	if raw.Image != nil {
		return raw.Image.URL
	}
	return ""
}

// itemImage prefers the per-item image and falls back to the show image
func itemImage(it *gofeed.Item, showImage string) string {
	if it.ITunesExt != nil && it.ITunesExt.Image != "" {
		return it.ITunesExt.Image
	}
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	return showImage
}

// enclosureURL returns the first audio enclosure, or the first enclosure
// of any type when none is declared as audio
func enclosureURL(it *gofeed.Item) string {
	var first string
	for _, enc := range it.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if first == "" {
			first = enc.URL
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "audio/") {
			return enc.URL
		}
	}
	return first
}
