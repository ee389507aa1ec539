package sync

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	"github.com/castkeep/castkeep-api/pkg/download"
	"github.com/castkeep/castkeep-api/pkg/ffmpeg"
)

// fakeTagger stands in for ffmpeg: it copies input to output
type fakeTagger struct {
	embedErr  error
	writeErr  error
	verifyErr error
	probeErr  error
	embedded  int
	tagged    int
	lastTags  ffmpeg.Tags
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func (f *fakeTagger) EmbedArtwork(ctx context.Context, audioPath, imagePath, outputPath string, tags ffmpeg.Tags) error {
	if f.embedErr != nil {
		return f.embedErr
	}
	f.embedded++
	f.lastTags = tags
	return copyFile(audioPath, outputPath)
}

func (f *fakeTagger) WriteTags(ctx context.Context, audioPath, outputPath string, tags ffmpeg.Tags) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.tagged++
	f.lastTags = tags
	return copyFile(audioPath, outputPath)
}

func (f *fakeTagger) VerifyEmbeddedArtwork(ctx context.Context, filePath string) error {
	return f.verifyErr
}

func (f *fakeTagger) GetMetadata(ctx context.Context, filePath string) (*ffmpeg.AudioMetadata, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return &ffmpeg.AudioMetadata{Duration: 1832.5, Format: "mp3"}, nil
}

type memRecorder struct {
	records []*models.DownloadRecord
}

func (r *memRecorder) Record(ctx context.Context, rec *models.DownloadRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func mediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ".mp3"):
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("audio payload"))
		case strings.HasSuffix(r.URL.Path, ".jpg"):
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("image payload"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testDownloader() *download.Downloader {
	opts := download.DefaultOptions()
	opts.Timeout = 5 * time.Second
	opts.Backoff = time.Millisecond
	return download.NewDownloader(opts)
}

func installerFixture(t *testing.T, tagger Tagger, rec Recorder) (*Installer, *models.Subscription) {
	t.Helper()
	dir := t.TempDir()
	sub := &models.Subscription{
		URL:    "https://example.com/feed.xml",
		Title:  "Some Show",
		Folder: "Some Show",
		Dir:    dir,
		Prefix: "USB/Podcasts/Some Show",
	}
	inst := NewInstaller(testDownloader(), feed.NewIdentity(nil), tagger, rec)
	return inst, sub
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}

func TestInstall_WithArtwork(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	tagger := &fakeTagger{}
	rec := &memRecorder{}
	inst, sub := installerFixture(t, tagger, rec)

	res, err := inst.Install(context.Background(), InstallRequest{
		Sub:          sub,
		GUID:         "guid-1",
		Title:        "Episode 1",
		Date:         "2024-05-01",
		EnclosureURL: server.URL + "/e1.mp3",
		ImageURL:     server.URL + "/e1.jpg",
	})
	require.NoError(t, err)

	assert.True(t, feed.IsValidID(res.ID))
	assert.Equal(t, res.ID+".mp3", res.Filename)
	assert.True(t, res.EmbeddedArt)
	assert.False(t, res.Skipped)
	assert.Equal(t, "USB/Podcasts/Some Show/"+res.Filename, res.LibraryPath)

	data, err := os.ReadFile(filepath.Join(sub.Dir, res.Filename))
	require.NoError(t, err)
	assert.Equal(t, "audio payload", string(data))

	assert.Equal(t, 1, tagger.embedded)
	assertNoTemps(t, sub.Dir)

	// Catalog entry carries the tag metadata
	assert.Equal(t, "Some Show", res.Entry.Artist)
	assert.Equal(t, "Episode 1", res.Entry.Title)
	assert.Equal(t, "2024-05-01", res.Entry.Date)
	assert.Equal(t, "Podcast", res.Entry.Genre)
	assert.Equal(t, res.Filename, res.Entry.Filename)

	// Audio and image downloads recorded; the audio row carries the
	// probed length
	require.Len(t, rec.records, 2)
	assert.Equal(t, "audio", rec.records[0].Method)
	assert.True(t, rec.records[0].OK)
	assert.Equal(t, 1832.5, rec.records[0].Seconds)
	assert.Equal(t, "image", rec.records[1].Method)
	assert.Zero(t, rec.records[1].Seconds)

	// The canonical URL lands in the comment tag
	assert.Equal(t, server.URL+"/e1.mp3", tagger.lastTags.Comment)
	assert.Equal(t, "Episode 1", tagger.lastTags.Title)
}

func TestInstall_ProbeFailureIsNotFatal(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	tagger := &fakeTagger{probeErr: errors.New("ffprobe missing")}
	rec := &memRecorder{}
	inst, sub := installerFixture(t, tagger, rec)

	res, err := inst.Install(context.Background(), InstallRequest{
		Sub:          sub,
		GUID:         "guid-1",
		Title:        "Episode 1",
		EnclosureURL: server.URL + "/e1.mp3",
	})
	require.NoError(t, err)

	_, err = os.Stat(res.Path)
	assert.NoError(t, err)
	require.Len(t, rec.records, 1)
	assert.True(t, rec.records[0].OK)
	assert.Zero(t, rec.records[0].Seconds)
}

func TestInstall_UnexpectedContentTypeStillInstalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("audio payload"))
	}))
	defer server.Close()

	inst, sub := installerFixture(t, &fakeTagger{}, nil)

	res, err := inst.Install(context.Background(), InstallRequest{
		Sub:          sub,
		GUID:         "guid-1",
		Title:        "Episode 1",
		EnclosureURL: server.URL + "/e1.mp3",
	})
	require.NoError(t, err, "mislabeled enclosures are warned about, not rejected")

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "audio payload", string(data))
}

func TestInstall_SkipsExisting(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	inst, sub := installerFixture(t, &fakeTagger{}, nil)
	req := InstallRequest{
		Sub:          sub,
		GUID:         "guid-1",
		Title:        "Episode 1",
		EnclosureURL: server.URL + "/e1.mp3",
	}

	first, err := inst.Install(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Skipped)

	// Second run must not touch the file
	info1, _ := os.Stat(first.Path)
	second, err := inst.Install(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.ID, second.ID)
	info2, _ := os.Stat(first.Path)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestInstall_ArtworkVerificationFallsBack(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	tagger := &fakeTagger{verifyErr: ffmpeg.ErrNoEmbeddedCover}
	inst, sub := installerFixture(t, tagger, nil)

	res, err := inst.Install(context.Background(), InstallRequest{
		Sub:          sub,
		GUID:         "guid-1",
		Title:        "Episode 1",
		EnclosureURL: server.URL + "/e1.mp3",
		ImageURL:     server.URL + "/e1.jpg",
	})
	require.NoError(t, err)

	assert.False(t, res.EmbeddedArt)
	assert.Equal(t, 1, tagger.tagged, "must fall back to tag-only write")
	_, err = os.Stat(res.Path)
	assert.NoError(t, err)
	assertNoTemps(t, sub.Dir)
}

func TestInstall_TaggingFailureInstallsRaw(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	tagger := &fakeTagger{writeErr: errors.New("ffmpeg missing")}
	inst, sub := installerFixture(t, tagger, nil)

	res, err := inst.Install(context.Background(), InstallRequest{
		Sub:          sub,
		GUID:         "guid-1",
		Title:        "Episode 1",
		EnclosureURL: server.URL + "/e1.mp3",
	})
	require.NoError(t, err, "tagging is best-effort")

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "audio payload", string(data))
	assertNoTemps(t, sub.Dir)
}

func TestInstall_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	rec := &memRecorder{}
	inst, sub := installerFixture(t, &fakeTagger{}, rec)

	_, err := inst.Install(context.Background(), InstallRequest{
		Sub:          sub,
		GUID:         "guid-1",
		EnclosureURL: server.URL + "/gone.mp3",
	})
	require.Error(t, err)

	// Directory untouched, failure recorded
	entries, _ := os.ReadDir(sub.Dir)
	assert.Empty(t, entries)
	require.Len(t, rec.records, 1)
	assert.False(t, rec.records[0].OK)
	assert.NotEmpty(t, rec.records[0].ErrorMessage)
}

func TestInstall_MissingEnclosure(t *testing.T) {
	inst, sub := installerFixture(t, &fakeTagger{}, nil)
	_, err := inst.Install(context.Background(), InstallRequest{Sub: sub, GUID: "guid-1"})
	require.Error(t, err)
}

func TestAudioExt(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://e.com/a.mp3", ".mp3"},
		{"https://e.com/a.M4A", ".m4a"},
		{"https://e.com/a.ogg", ".ogg"},
		{"https://e.com/a", ".mp3"},
		{"https://e.com/a.php", ".mp3"},
		{"not a url", ".mp3"},
	}
	for _, tt := range tests {
		if got := audioExt(tt.url); got != tt.want {
			t.Errorf("audioExt(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}
