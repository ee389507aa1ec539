package library

import (
	"context"
	"log"
)

// NoopHost is used when no library host is configured. Operations log and
// succeed so local sync keeps working on a standalone box.
type NoopHost struct {
	mounts MountMap
}

// NewNoopHost creates a NoopHost with an optional mount translation
func NewNoopHost(mounts MountMap) *NoopHost {
	return &NoopHost{mounts: mounts}
}

func (h *NoopHost) PushCover(ctx context.Context, localPath, coverName string) error {
	log.Printf("[DEBUG] No library host configured, skipping cover push for %s", coverName)
	return nil
}

func (h *NoopHost) WritePlaylist(ctx context.Context, name, content string) error {
	log.Printf("[DEBUG] No library host configured, skipping remote playlist %s", name)
	return nil
}

func (h *NoopHost) Rescan(ctx context.Context, libraryPath string) error {
	log.Printf("[DEBUG] No library host configured, skipping rescan of %s", libraryPath)
	return nil
}

func (h *NoopHost) PathOnHost(localPath string) string {
	return h.mounts.Translate(localPath)
}
