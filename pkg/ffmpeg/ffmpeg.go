package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}

	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}

	return nil
}

// EmbedArtwork writes audioPath to outputPath with imagePath embedded as an
// attached_pic stream and fresh ID3v2.4 tags. All prior metadata is dropped
// so feed-supplied tags are authoritative. Audio is stream-copied, never
// re-encoded.
func (f *FFmpeg) EmbedArtwork(ctx context.Context, audioPath, imagePath, outputPath string, tags Tags) error {
	args := buildEmbedArgs(audioPath, imagePath, outputPath, tags)

	if stderr, err := f.run(ctx, args); err != nil {
		os.Remove(outputPath)
		return NewProcessingError("embed_artwork", audioPath, err, stderr)
	}

	return nil
}

// WriteTags writes audioPath to outputPath with fresh ID3v2.4 tags and no
// artwork. Used when the feed item carries no usable image.
func (f *FFmpeg) WriteTags(ctx context.Context, audioPath, outputPath string, tags Tags) error {
	args := buildTagArgs(audioPath, outputPath, tags)

	if stderr, err := f.run(ctx, args); err != nil {
		os.Remove(outputPath)
		return NewProcessingError("write_tags", audioPath, err, stderr)
	}

	return nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	log.Printf("[DEBUG] Running %s %v", f.ffmpegPath, args)

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stderr.String(), err
	}

	return "", nil
}

// buildEmbedArgs assembles the ffmpeg invocation for artwork embedding.
// The image becomes a video stream flagged attached_pic, which players
// treat as cover art.
func buildEmbedArgs(audioPath, imagePath, outputPath string, tags Tags) []string {
	args := []string{
		"-y",
		"-i", audioPath,
		"-i", imagePath,
		"-map", "0:a",
		"-map", "1:v",
		"-c", "copy",
		"-map_metadata", "-1",
		"-id3v2_version", "4",
		"-disposition:v", "attached_pic",
	}
	args = append(args, metadataArgs(tags)...)
	args = append(args, outputPath)
	return args
}

// buildTagArgs assembles the ffmpeg invocation for tag-only rewriting
func buildTagArgs(audioPath, outputPath string, tags Tags) []string {
	args := []string{
		"-y",
		"-i", audioPath,
		"-map", "0:a",
		"-c", "copy",
		"-map_metadata", "-1",
		"-id3v2_version", "4",
	}
	args = append(args, metadataArgs(tags)...)
	args = append(args, outputPath)
	return args
}

func metadataArgs(tags Tags) []string {
	var args []string
	if tags.Artist != "" {
		args = append(args, "-metadata", "artist="+tags.Artist)
	}
	if tags.Album != "" {
		args = append(args, "-metadata", "album="+tags.Album)
	}
	if tags.Title != "" {
		args = append(args, "-metadata", "title="+tags.Title)
	}
	if tags.Date != "" {
		// TDRC is the ID3v2.4 recording time frame
		args = append(args, "-metadata", "TDRC="+tags.Date)
	}
	if tags.Genre != "" {
		args = append(args, "-metadata", "genre="+tags.Genre)
	}
	if tags.Comment != "" {
		args = append(args, "-metadata", "comment="+tags.Comment)
	}
	return args
}
