package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Options configures the download behavior
type Options struct {
	MaxSize   int64         // Maximum file size in bytes (0 = no limit)
	Timeout   time.Duration // Per-attempt download timeout
	Retries   int           // Retry attempts after the first failure
	Backoff   time.Duration // Base delay for exponential backoff
	UserAgent string        // User agent string
}

// DefaultOptions returns default download options
func DefaultOptions() Options {
	return Options{
		MaxSize:   500 * 1024 * 1024, // 500MB default max
		Timeout:   2 * time.Minute,
		Retries:   3,
		Backoff:   500 * time.Millisecond,
		UserAgent: "CastkeepAPI/1.0",
	}
}

// Result contains information about a successful download
type Result struct {
	FilePath      string    // Path the file was written to
	FinalURL      string    // URL after following redirects
	ContentType   string    // Content-Type from response
	ContentLength int64     // Size in bytes
	LastModified  time.Time // Last-Modified header if present
}

// Downloader fetches remote media into local files
type Downloader struct {
	client  *http.Client
	options Options
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options Options) *Downloader {
	if options.Retries <= 0 {
		options.Retries = 3
	}
	if options.Backoff <= 0 {
		options.Backoff = 500 * time.Millisecond
	}
	return &Downloader{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true, // Don't compress audio
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// ResolveFinalURL follows redirects and returns the URL the content actually
// lives at. A HEAD request is tried first; hosts that reject HEAD get a GET
// whose body is discarded immediately.
func (d *Downloader) ResolveFinalURL(ctx context.Context, rawURL string) (string, error) {
	final, err := d.resolveWithMethod(ctx, http.MethodHead, rawURL)
	if err == nil {
		return final, nil
	}

	log.Printf("[DEBUG] HEAD resolution failed for %s, retrying with GET: %v", rawURL, err)
	return d.resolveWithMethod(ctx, http.MethodGet, rawURL)
}

func (d *Downloader) resolveWithMethod(ctx context.Context, method, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.options.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	// Drain nothing; redirects were already followed by the client
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return resp.Request.URL.String(), nil
}

// DownloadToFile downloads a URL to the given path, retrying transient
// failures with exponential backoff. The destination's parent directory must
// already exist. On failure the partial file is removed.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) (*Result, error) {
	log.Printf("[DEBUG] Starting download from %s to %s", url, destPath)

	var result *Result
	backoff := retry.WithMaxRetries(uint64(d.options.Retries), retry.NewExponential(d.options.Backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := d.downloadOnce(ctx, url, destPath)
		if err != nil {
			log.Printf("[WARN] Download attempt failed for %s: %v", url, err)
			return retry.RetryableError(err)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("download failed after retries: %w", err)
	}

	return result, nil
}

func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.options.UserAgent)
	req.Header.Set("Accept", "audio/*,*/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if d.options.MaxSize > 0 && resp.ContentLength > d.options.MaxSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", resp.ContentLength, d.options.MaxSize)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	var reader io.Reader = resp.Body
	if d.options.MaxSize > 0 {
		reader = &io.LimitedReader{R: reader, N: d.options.MaxSize}
	}

	written, err := io.Copy(out, reader)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	log.Printf("[DEBUG] Downloaded %d bytes to %s", written, destPath)

	result := &Result{
		FilePath:      destPath,
		FinalURL:      resp.Request.URL.String(),
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: written,
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		if t, err := http.ParseTime(lastMod); err == nil {
			result.LastModified = t
		}
	}

	return result, nil
}

// FetchBytes downloads a small resource (cover art, feed documents) fully
// into memory with the same retry policy as file downloads.
func (d *Downloader) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	backoff := retry.WithMaxRetries(uint64(d.options.Retries), retry.NewExponential(d.options.Backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", d.options.UserAgent)

		resp, err := d.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return retry.RetryableError(fmt.Errorf("server returned status %d", resp.StatusCode))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, 20*1024*1024))
		if err != nil {
			return retry.RetryableError(err)
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch failed after retries: %w", err)
	}

	return body, nil
}

// IsAudioContentType checks if content type looks like audio
func IsAudioContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "audio/") ||
		contentType == "application/octet-stream" // Some servers use this for audio
}
