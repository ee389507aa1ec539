package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/catalog"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	"github.com/castkeep/castkeep-api/internal/services/library"
	"github.com/castkeep/castkeep-api/internal/services/subscriptions"
	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

type stubFetcher struct {
	feed *feed.Feed
	err  error
}

func (f *stubFetcher) Fetch(ctx context.Context, url string, limit int) (*feed.Feed, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &feed.Feed{Title: f.feed.Title, ImageURL: f.feed.ImageURL, Items: f.feed.Items}
	if limit > 0 && limit < len(out.Items) {
		out.Items = out.Items[:limit]
	}
	return out, nil
}

type stubCover struct {
	fetched []string
	err     error
}

func (c *stubCover) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	c.fetched = append(c.fetched, url)
	if c.err != nil {
		return nil, c.err
	}
	return []byte("cover bytes"), nil
}

type syncFixture struct {
	service  Service
	registry *subscriptions.Registry
	store    *catalog.Store
	fetcher  *stubFetcher
	cover    *stubCover
	sub      *models.Subscription
	server   *httptest.Server
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("audio payload"))
	}))
	t.Cleanup(server.Close)

	root := t.TempDir()
	showDir := filepath.Join(root, "Test Show")
	require.NoError(t, os.MkdirAll(showDir, 0755))

	sub := &models.Subscription{
		URL:      "https://example.com/feed.xml",
		Title:    "Test Show",
		Folder:   "Test Show",
		Dir:      showDir,
		Prefix:   "USB/Podcasts/Test Show",
		Playlist: filepath.Join(showDir, "Test Show.m3u"),
		Catalog:  filepath.Join(showDir, "episodes.json"),
	}

	registry := subscriptions.NewRegistry(filepath.Join(root, "subscriptions.json"))
	require.NoError(t, registry.Upsert(*sub))

	fetcher := &stubFetcher{feed: &feed.Feed{
		Title:    "Test Show",
		ImageURL: "https://example.com/cover.jpg",
		Items: []feed.Item{
			{Title: "Third", GUID: "g3", Published: ts("2024-05-03"), EnclosureURL: server.URL + "/3.mp3"},
			{Title: "Second", GUID: "g2", Published: ts("2024-05-02"), EnclosureURL: server.URL + "/2.mp3"},
			{Title: "First", GUID: "g1", Published: ts("2024-05-01"), EnclosureURL: server.URL + "/1.mp3"},
		},
	}}

	identity := feed.NewIdentity(nil)
	store := catalog.NewStore()
	cover := &stubCover{}
	installer := NewInstaller(testDownloader(), identity, &fakeTagger{}, nil)
	svc := NewService(registry, fetcher, cover, identity, installer, store, library.NewNoopHost(library.MountMap{}), 200, 50)

	return &syncFixture{
		service:  svc,
		registry: registry,
		store:    store,
		fetcher:  fetcher,
		cover:    cover,
		sub:      sub,
		server:   server,
	}
}

func TestDownloadLatest(t *testing.T) {
	fx := newSyncFixture(t)

	summary, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Downloaded)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.MapCount)
	assert.Equal(t, 2, summary.M3UCount)

	// Newest two installed under their content IDs
	doc, err := fx.store.Load(fx.sub.Catalog)
	require.NoError(t, err)
	titles := make([]string, 0, 2)
	for _, e := range doc.ItemsByKey {
		titles = append(titles, e.Title)
	}
	assert.ElementsMatch(t, []string{"Third", "Second"}, titles)

	// Playlist written alongside, newest first
	data, err := os.ReadFile(fx.sub.Playlist)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "USB/Podcasts/Test Show/"))
	}

	// Registry count refreshed
	stored, err := fx.registry.Get(fx.sub.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.DownloadedCount)
}

func TestDownloadLatest_SecondRunSkips(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 2)
	require.NoError(t, err)

	summary, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Downloaded)
	assert.Equal(t, 2, summary.Skipped)
}

func TestDownloadLatest_RefreshesCover(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 1)
	require.NoError(t, err)

	require.NotEmpty(t, fx.cover.fetched)
	assert.Equal(t, "https://example.com/cover.jpg", fx.cover.fetched[0])
	data, err := os.ReadFile(filepath.Join(fx.sub.Dir, "cover.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "cover bytes", string(data))
}

func TestDownloadLatest_CoverFailureIsNotFatal(t *testing.T) {
	fx := newSyncFixture(t)
	fx.cover.err = assert.AnError

	summary, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)
	_, statErr := os.Stat(filepath.Join(fx.sub.Dir, "cover.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadLatest_IncompleteRecord(t *testing.T) {
	fx := newSyncFixture(t)
	broken := models.Subscription{
		URL:    "https://halfway.example/feed.xml",
		Title:  "Halfway",
		Folder: "Halfway",
	}
	require.NoError(t, fx.registry.Upsert(broken))

	_, err := fx.service.DownloadLatest(context.Background(), broken.URL, 1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeConsistency))
}

func TestDownloadLatest_UnknownSubscription(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadLatest(context.Background(), "https://nobody.example/feed.xml", 1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestDownloadLatest_FeedFailure(t *testing.T) {
	fx := newSyncFixture(t)
	fx.fetcher.err = apperrors.NetworkError(fx.sub.URL, assert.AnError)

	_, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNetwork))
}

func TestDownloadOne(t *testing.T) {
	fx := newSyncFixture(t)

	res, err := fx.service.DownloadOne(context.Background(), DownloadOneRequest{
		RSS:          fx.sub.URL,
		GUID:         "g1",
		Title:        "First",
		Date:         "2024-05-01",
		EnclosureURL: fx.server.URL + "/1.mp3",
	})
	require.NoError(t, err)

	assert.True(t, feed.IsValidID(res.ID))
	_, statErr := os.Stat(res.Path)
	assert.NoError(t, statErr)
	assert.Equal(t, 1, fx.store.Count(fx.sub.Catalog))
}

func TestDownloadOne_InvalidID(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadOne(context.Background(), DownloadOneRequest{
		RSS:          fx.sub.URL,
		ID:           "NOT-HEX",
		EnclosureURL: fx.server.URL + "/1.mp3",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestSyncInitial(t *testing.T) {
	fx := newSyncFixture(t)

	summary, err := fx.service.SyncInitial(context.Background(), fx.sub, 200, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Downloaded)
	// Rebuild sees only the files on disk
	assert.Equal(t, 2, summary.MapCount)
	assert.Equal(t, 2, fx.store.Count(fx.sub.Catalog))
}

func TestSyncInitial_ZeroCountStillBuildsCatalog(t *testing.T) {
	fx := newSyncFixture(t)

	summary, err := fx.service.SyncInitial(context.Background(), fx.sub, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Downloaded)
	assert.Equal(t, 0, summary.MapCount)

	// Catalog and playlist exist even with nothing downloaded
	_, err = os.Stat(fx.sub.Catalog)
	assert.NoError(t, err)
	data, err := os.ReadFile(fx.sub.Playlist)
	require.NoError(t, err)
	assert.Empty(t, string(data))
}

func TestRefreshOne_DropsVanishedEpisodes(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 2)
	require.NoError(t, err)

	// Remove one installed file behind the catalog's back
	doc, err := fx.store.Load(fx.sub.Catalog)
	require.NoError(t, err)
	for _, e := range doc.ItemsByKey {
		require.NoError(t, os.Remove(filepath.Join(fx.sub.Dir, e.Filename)))
		break
	}

	summary, err := fx.service.RefreshOne(context.Background(), fx.sub)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MapCount)
	assert.Equal(t, 1, summary.M3UCount)
}

func TestRefreshAll_CollectsErrors(t *testing.T) {
	fx := newSyncFixture(t)
	brokenDir := filepath.Join(t.TempDir(), "Broken")
	broken := models.Subscription{
		URL:      "https://broken.example/feed.xml",
		Title:    "Broken",
		Folder:   "Broken",
		Dir:      brokenDir,
		Prefix:   "USB/Podcasts/Broken",
		Playlist: filepath.Join(brokenDir, "Broken.m3u"),
		Catalog:  filepath.Join(brokenDir, "episodes.json"),
	}
	require.NoError(t, fx.registry.Upsert(broken))

	// Both subs share the stub fetcher; fail everything and make sure
	// each result carries its own error instead of aborting the loop
	fx.fetcher.err = apperrors.NetworkError("feed", assert.AnError)

	results, err := fx.service.RefreshAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEmpty(t, r.Error)
		assert.Nil(t, r.Summary)
	}
}

func TestListEpisodes(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 1)
	require.NoError(t, err)

	view, err := fx.service.ListEpisodes(context.Background(), fx.sub.URL, 0)
	require.NoError(t, err)

	assert.Equal(t, "Test Show", view.ShowTitle)
	assert.Equal(t, "https://example.com/cover.jpg", view.ShowImage)
	assert.Equal(t, 1, view.Downloaded)
	require.Len(t, view.Episodes, 3)
	assert.Equal(t, "Third", view.Episodes[0].Title)
	assert.True(t, view.Episodes[0].Downloaded)
	assert.False(t, view.Episodes[1].Downloaded)
}

func TestEpisodeStatus_RefreshesCover(t *testing.T) {
	fx := newSyncFixture(t)

	view, err := fx.service.EpisodeStatus(context.Background(), fx.sub.URL, 0)
	require.NoError(t, err)
	require.Len(t, view.Episodes, 3)
	assert.Equal(t, []string{"https://example.com/cover.jpg"}, fx.cover.fetched)

	// The plain listing leaves the cover alone
	_, err = fx.service.ListEpisodes(context.Background(), fx.sub.URL, 0)
	require.NoError(t, err)
	assert.Len(t, fx.cover.fetched, 1)
}

func TestDeleteEpisodes(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 2)
	require.NoError(t, err)

	doc, err := fx.store.Load(fx.sub.Catalog)
	require.NoError(t, err)
	keys := make([]string, 0, 1)
	for k := range doc.ItemsByKey {
		keys = append(keys, k)
		break
	}
	keys = append(keys, "id:000000000000")

	report, err := fx.service.DeleteEpisodes(context.Background(), fx.sub.URL, keys)
	require.NoError(t, err)
	assert.Len(t, report.Deleted, 1)
	assert.Len(t, report.Missing, 1)
	assert.Equal(t, 1, fx.store.Count(fx.sub.Catalog))
}

func TestBuildPlaylistFromDirectory(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 2)
	require.NoError(t, err)

	res, err := fx.service.BuildPlaylistFromDirectory(context.Background(), BuildPlaylistRequest{
		RSS:         fx.sub.URL,
		NewestFirst: true,
		Limit:       1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Test Show", res.Name)
	assert.Equal(t, fx.sub.Playlist, res.Path)
	assert.Equal(t, 1, res.Count)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestBuildPlaylistFromDirectory_CustomName(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 1)
	require.NoError(t, err)

	res, err := fx.service.BuildPlaylistFromDirectory(context.Background(), BuildPlaylistRequest{
		RSS:  fx.sub.URL,
		Name: "Favorites",
	})
	require.NoError(t, err)

	assert.Equal(t, "Favorites", res.Name)
	assert.Equal(t, filepath.Join(fx.sub.Dir, "Favorites.m3u"), res.Path)
	_, err = os.Stat(res.Path)
	assert.NoError(t, err)
}

func TestDownloadLatest_RespectsSubscriptionDefaults(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.registry.Update(fx.sub.URL, func(r *models.Subscription) {
		r.DownloadCount = 1
	})
	require.NoError(t, err)

	summary, err := fx.service.DownloadLatest(context.Background(), fx.sub.URL, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)
}
