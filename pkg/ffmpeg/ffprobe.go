package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ffprobeOutput represents the JSON structure returned by ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration   string            `json:"duration"`
		Size       string            `json:"size"`
		Bitrate    string            `json:"bit_rate"`
		FormatName string            `json:"format_name"`
		Tags       map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType   string         `json:"codec_type"`
		CodecName   string         `json:"codec_name"`
		SampleRate  string         `json:"sample_rate"`
		Channels    int            `json:"channels"`
		Duration    string         `json:"duration"`
		Disposition map[string]int `json:"disposition"`
	} `json:"streams"`
}

// GetMetadata extracts metadata from an audio file using ffprobe
func (f *FFmpeg) GetMetadata(ctx context.Context, filePath string) (*AudioMetadata, error) {
	output, err := f.probe(ctx, filePath)
	if err != nil {
		return nil, err
	}

	return parseMetadata(output, filePath)
}

// HasEmbeddedArtwork reports whether the file carries a video stream with
// the attached_pic disposition
func (f *FFmpeg) HasEmbeddedArtwork(ctx context.Context, filePath string) (bool, error) {
	output, err := f.probe(ctx, filePath)
	if err != nil {
		return false, err
	}

	for _, stream := range output.Streams {
		if stream.CodecType == "video" && stream.Disposition["attached_pic"] == 1 {
			return true, nil
		}
	}

	return false, nil
}

func (f *FFmpeg) probe(ctx context.Context, filePath string) (*ffprobeOutput, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet",
		"-show_format",
		"-show_streams",
		"-of", "json",
		filePath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewProcessingError("probe", filePath, err, stderr.String())
	}

	var output ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return nil, NewProcessingError("probe_parsing", filePath, err, "")
	}

	return &output, nil
}

// parseMetadata converts ffprobe output to AudioMetadata
func parseMetadata(output *ffprobeOutput, filePath string) (*AudioMetadata, error) {
	metadata := &AudioMetadata{}

	if output.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(output.Format.Duration, 64); err == nil {
			metadata.Duration = duration
		}
	}

	if output.Format.Size != "" {
		if size, err := strconv.ParseInt(output.Format.Size, 10, 64); err == nil {
			metadata.Size = size
		}
	}

	if output.Format.Bitrate != "" {
		if bitrate, err := strconv.Atoi(output.Format.Bitrate); err == nil {
			metadata.Bitrate = bitrate
		}
	}

	metadata.Format = output.Format.FormatName

	if tags := output.Format.Tags; tags != nil {
		metadata.Title = tags["title"]
		metadata.Artist = tags["artist"]
		metadata.Album = tags["album"]
		metadata.Year = tags["date"]
		if metadata.Year == "" {
			metadata.Year = tags["year"]
		}
	}

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "audio":
			if metadata.Codec == "" {
				metadata.Codec = stream.CodecName
				metadata.Channels = stream.Channels

				if stream.SampleRate != "" {
					if sampleRate, err := strconv.Atoi(stream.SampleRate); err == nil {
						metadata.SampleRate = sampleRate
					}
				}

				// Use stream duration if format duration is not available
				if metadata.Duration == 0 && stream.Duration != "" {
					if duration, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
						metadata.Duration = duration
					}
				}
			}
		case "video":
			if stream.Disposition["attached_pic"] == 1 {
				metadata.HasCover = true
			}
		}
	}

	if metadata.Duration == 0 {
		return nil, NewProcessingError("metadata_validation", filePath,
			fmt.Errorf("could not determine audio duration"), "")
	}

	return metadata, nil
}
