package cleanup

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Service sweeps crashed-install leftovers out of the podcasts tree.
// Every intermediate file an install produces is a dot-prefixed sibling
// of its final path, so anything matching that shape and older than
// maxAge is garbage.
type Service struct {
	podcastsDir     string
	maxAge          time.Duration
	cleanupInterval time.Duration
	cancel          context.CancelFunc
}

// NewService creates a new cleanup service
func NewService(podcastsDir string, maxAge, cleanupInterval time.Duration) *Service {
	return &Service{
		podcastsDir:     podcastsDir,
		maxAge:          maxAge,
		cleanupInterval: cleanupInterval,
	}
}

// Start runs one sweep immediately and then sweeps on the interval
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.Sweep()

	go func() {
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				log.Println("[INFO] Cleanup service stopped")
				return
			}
		}
	}()

	log.Printf("[INFO] Cleanup service started (interval: %v, max age: %v)", s.cleanupInterval, s.maxAge)
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Sweep removes stale install temp files under the podcasts tree and
// returns how many it deleted
func (s *Service) Sweep() int {
	if _, err := os.Stat(s.podcastsDir); os.IsNotExist(err) {
		return 0
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0

	err := filepath.Walk(s.podcastsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !isInstallTemp(info.Name()) {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		log.Printf("[DEBUG] Removing stale temp file: %s", path)
		if err := os.Remove(path); err != nil {
			log.Printf("[WARN] Failed to remove temp file %s: %v", path, err)
		} else {
			removed++
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] Cleanup walk error: %v", err)
	}

	return removed
}

// isInstallTemp reports whether name looks like an install intermediate:
// a dot prefix followed by a hex nonce, a dash and the final filename
func isInstallTemp(name string) bool {
	if !strings.HasPrefix(name, ".") {
		return false
	}
	rest := strings.TrimPrefix(name, ".")
	nonce, _, found := strings.Cut(rest, "-")
	if !found || len(nonce) != 12 {
		return false
	}
	for _, r := range nonce {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
