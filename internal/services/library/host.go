package library

import (
	"context"
	"strings"
)

// Host is the remote media library the installed files ultimately serve:
// the box running the player daemon. Cover pushes, playlist placement and
// rescans happen there; everything else in this service is local.
type Host interface {
	// PushCover copies a local cover file to the host's cover directory
	// under coverName.
	PushCover(ctx context.Context, localPath, coverName string) error
	// WritePlaylist places playlist content under name in the host's
	// playlist directory.
	WritePlaylist(ctx context.Context, name, content string) error
	// Rescan asks the player daemon to re-index the given library path.
	Rescan(ctx context.Context, libraryPath string) error
	// PathOnHost translates a local filesystem path to the host's view
	// of the same file.
	PathOnHost(localPath string) string
}

// MountMap translates between a local mount prefix and the host's
type MountMap struct {
	From string // local prefix, e.g. /mnt/
	To   string // host prefix, e.g. /media/
}

// Translate applies the mapping; paths outside the mapped prefix pass
// through unchanged
func (m MountMap) Translate(localPath string) string {
	if m.From != "" && strings.HasPrefix(localPath, m.From) {
		return m.To + strings.TrimPrefix(localPath, m.From)
	}
	return localPath
}
