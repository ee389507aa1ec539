package sync

import (
	"context"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/castkeep/castkeep-api/internal/fsutil"
	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	"github.com/castkeep/castkeep-api/pkg/download"
	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
	"github.com/castkeep/castkeep-api/pkg/ffmpeg"
)

// Recorder receives one row per download attempt. Recording is
// best-effort; history must never block an install.
type Recorder interface {
	Record(ctx context.Context, rec *models.DownloadRecord) error
}

// Tagger is the slice of ffmpeg the installer needs
type Tagger interface {
	EmbedArtwork(ctx context.Context, audioPath, imagePath, outputPath string, tags ffmpeg.Tags) error
	WriteTags(ctx context.Context, audioPath, outputPath string, tags ffmpeg.Tags) error
	VerifyEmbeddedArtwork(ctx context.Context, filePath string) error
	GetMetadata(ctx context.Context, filePath string) (*ffmpeg.AudioMetadata, error)
}

// InstallRequest describes one episode to fetch and install
type InstallRequest struct {
	Sub          *models.Subscription
	ID           string // optional; recomputed from GUID/URL when absent
	GUID         string
	Title        string
	Date         string // YYYY-MM-DD
	EnclosureURL string
	ImageURL     string
}

// InstallResult reports one finished (or skipped) install
type InstallResult struct {
	ID          string              `json:"id"`
	Filename    string              `json:"filename"`
	Skipped     bool                `json:"skipped"`
	EmbeddedArt bool                `json:"embeddedArt"`
	Path        string              `json:"path"`
	LibraryPath string              `json:"file"`
	Entry       models.CatalogEntry `json:"-"`
}

// Installer downloads one episode into its final content-addressed name.
// The contract: after Install returns, either the final file exists
// complete or the directory is as it was. All intermediate files are
// dot-prefixed siblings, removed on every exit path.
type Installer struct {
	downloader *download.Downloader
	identity   *feed.Identity
	tagger     Tagger
	recorder   Recorder
}

// NewInstaller wires an installer
func NewInstaller(downloader *download.Downloader, identity *feed.Identity, tagger Tagger, recorder Recorder) *Installer {
	return &Installer{
		downloader: downloader,
		identity:   identity,
		tagger:     tagger,
		recorder:   recorder,
	}
}

// audioExt picks the installed extension from the canonical URL path
func audioExt(canonicalURL string) string {
	ext := ""
	if u, err := url.Parse(canonicalURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	switch ext {
	case ".mp3", ".m4a", ".aac", ".mp4", ".ogg", ".flac":
		return ext
	default:
		return ".mp3"
	}
}

// Install runs the full per-episode contract
func (i *Installer) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	if req.EnclosureURL == "" {
		return nil, apperrors.MissingFieldError("enclosure")
	}

	canonical := i.identity.CanonicalURL(ctx, req.EnclosureURL)

	id := req.ID
	if !feed.IsValidID(id) {
		id = feed.EpisodeID(req.GUID, canonical)
	}

	filename := id + audioExt(canonical)
	finalPath := filepath.Join(req.Sub.Dir, filename)

	result := &InstallResult{
		ID:          id,
		Filename:    filename,
		Path:        finalPath,
		LibraryPath: req.Sub.Prefix + "/" + filename,
	}
	result.Entry = i.catalogEntry(req, result)

	// Identity check before any network traffic: the file is the receipt
	if _, err := os.Stat(finalPath); err == nil {
		log.Printf("[DEBUG] %s already installed, skipping", filename)
		result.Skipped = true
		return result, nil
	}

	var temps []string
	defer func() {
		for _, t := range temps {
			if err := os.Remove(t); err != nil && !os.IsNotExist(err) {
				log.Printf("[WARN] Could not remove temp file %s: %v", t, err)
			}
		}
	}()

	audioTmp := fsutil.TempName(finalPath)
	temps = append(temps, audioTmp)

	start := time.Now()
	dl, err := i.downloader.DownloadToFile(ctx, canonical, audioTmp)
	if err != nil {
		i.record(ctx, req, id, audioTmp, dl, err, time.Since(start), "audio", 0)
		return nil, apperrors.NetworkError(canonical, err).WithDetail("id", id)
	}
	if dl.ContentType != "" && !download.IsAudioContentType(dl.ContentType) {
		log.Printf("[WARN] Unexpected content type %q for %s", dl.ContentType, canonical)
	}
	i.record(ctx, req, id, audioTmp, dl, nil, time.Since(start), "audio", i.probeDuration(ctx, id, audioTmp))

	installSrc := audioTmp
	tags := ffmpeg.Tags{
		Artist:  req.Sub.Title,
		Album:   req.Sub.Title,
		Title:   req.Title,
		Date:    req.Date,
		Genre:   "Podcast",
		Comment: canonical,
	}

	if req.ImageURL != "" {
		if taggedTmp, ok := i.embedArtwork(ctx, req, id, finalPath, audioTmp, tags, &temps); ok {
			installSrc = taggedTmp
			result.EmbeddedArt = true
		}
	}

	if installSrc == audioTmp {
		// No artwork (or embedding failed): still stamp the tags,
		// keeping the raw download when even that fails
		taggedTmp := fsutil.TempName(finalPath)
		temps = append(temps, taggedTmp)
		if err := i.tagger.WriteTags(ctx, audioTmp, taggedTmp, tags); err != nil {
			log.Printf("[WARN] Tagging failed for %s, installing untagged: %v", id, err)
		} else {
			installSrc = taggedTmp
		}
	}

	if err := os.Rename(installSrc, finalPath); err != nil {
		return nil, apperrors.IOError("rename", finalPath, err)
	}

	log.Printf("[INFO] Installed %s (%s)", filename, req.Title)
	return result, nil
}

// embedArtwork downloads the episode image and produces a tagged temp
// with embedded cover. Any failure falls back to tag-only; artwork is
// decoration, the audio is the contract.
func (i *Installer) embedArtwork(ctx context.Context, req InstallRequest, id, finalPath, audioTmp string, tags ffmpeg.Tags, temps *[]string) (string, bool) {
	imgTmp := fsutil.TempName(finalPath) + ".img"
	*temps = append(*temps, imgTmp)

	start := time.Now()
	dl, err := i.downloader.DownloadToFile(ctx, req.ImageURL, imgTmp)
	i.record(ctx, req, id, imgTmp, dl, err, time.Since(start), "image", 0)
	if err != nil {
		log.Printf("[WARN] Artwork download failed for %s: %v", req.ImageURL, err)
		return "", false
	}

	taggedTmp := fsutil.TempName(finalPath)
	*temps = append(*temps, taggedTmp)
	if err := i.tagger.EmbedArtwork(ctx, audioTmp, imgTmp, taggedTmp, tags); err != nil {
		log.Printf("[WARN] Artwork embedding failed for %s: %v", req.Title, err)
		return "", false
	}

	if err := i.tagger.VerifyEmbeddedArtwork(ctx, taggedTmp); err != nil {
		log.Printf("[WARN] Embedded artwork verification failed for %s: %v", req.Title, err)
		return "", false
	}

	return taggedTmp, true
}

func (i *Installer) catalogEntry(req InstallRequest, res *InstallResult) models.CatalogEntry {
	return models.CatalogEntry{
		Artist:   req.Sub.Title,
		Album:    req.Sub.Title,
		Title:    req.Title,
		Date:     req.Date,
		Genre:    "Podcast",
		ImageURL: req.ImageURL,
		File:     res.LibraryPath,
		Filename: res.Filename,
	}
}

// probeDuration reads the decoded length of a downloaded audio file.
// Probe failures are not fatal; a file ffprobe cannot read may still be
// worth installing.
func (i *Installer) probeDuration(ctx context.Context, id, path string) float64 {
	meta, err := i.tagger.GetMetadata(ctx, path)
	if err != nil {
		log.Printf("[WARN] Could not probe audio for %s: %v", id, err)
		return 0
	}
	return meta.Duration
}

func (i *Installer) record(ctx context.Context, req InstallRequest, id, outPath string, dl *download.Result, dlErr error, elapsed time.Duration, method string, seconds float64) {
	if i.recorder == nil {
		return
	}

	rec := &models.DownloadRecord{
		Subscription: req.Sub.Folder,
		EpisodeID:    id,
		URL:          req.EnclosureURL,
		OutPath:      outPath,
		OK:           dlErr == nil,
		DurationMS:   elapsed.Milliseconds(),
		Seconds:      seconds,
		Method:       method,
	}
	if method == "image" {
		rec.URL = req.ImageURL
	}
	if dl != nil {
		rec.Bytes = dl.ContentLength
	}
	if dlErr != nil {
		rec.ErrorMessage = dlErr.Error()
	}

	if err := i.recorder.Record(ctx, rec); err != nil {
		log.Printf("[WARN] Could not record download history: %v", err)
	}
}
