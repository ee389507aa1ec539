package ffmpeg

import (
	"context"
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// VerifyEmbeddedArtwork confirms a processed file actually carries cover art.
// The tag library reads the ID3 picture frame directly; if the file format is
// one it cannot parse, ffprobe's attached_pic disposition is the fallback.
func (f *FFmpeg) VerifyEmbeddedArtwork(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err == nil {
		if m.Picture() != nil {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrNoEmbeddedCover, filePath)
	}

	has, probeErr := f.HasEmbeddedArtwork(ctx, filePath)
	if probeErr != nil {
		return probeErr
	}
	if !has {
		return fmt.Errorf("%w: %s", ErrNoEmbeddedCover, filePath)
	}

	return nil
}
