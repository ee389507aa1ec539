package library

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

// SSHHost drives a remote library box over ssh/scp and its MPD instance
// over mpc. Commands shell out; there is no persistent connection.
type SSHHost struct {
	host        string
	user        string
	mpdHost     string
	mpdPort     int
	playlistDir string
	coverDir    string
	mounts      MountMap
}

// SSHConfig holds the remote host coordinates
type SSHConfig struct {
	Host        string
	User        string
	MPDHost     string
	MPDPort     int
	PlaylistDir string
	CoverDir    string
	Mounts      MountMap
}

// NewSSHHost creates a Host backed by ssh/scp/mpc
func NewSSHHost(cfg SSHConfig) *SSHHost {
	return &SSHHost{
		host:        cfg.Host,
		user:        cfg.User,
		mpdHost:     cfg.MPDHost,
		mpdPort:     cfg.MPDPort,
		playlistDir: cfg.PlaylistDir,
		coverDir:    cfg.CoverDir,
		mounts:      cfg.Mounts,
	}
}

func (h *SSHHost) target() string {
	if h.user != "" {
		return h.user + "@" + h.host
	}
	return h.host
}

// PushCover copies the cover via scp
func (h *SSHHost) PushCover(ctx context.Context, localPath, coverName string) error {
	dest := fmt.Sprintf("%s:%s/%s", h.target(), h.playlistCoverDir(), coverName)
	if err := h.run(ctx, "scp", "-q", localPath, dest); err != nil {
		return apperrors.ExternalToolError("scp", err).
			WithDetail("local", localPath).
			WithDetail("dest", dest)
	}
	return nil
}

func (h *SSHHost) playlistCoverDir() string {
	if h.coverDir != "" {
		return h.coverDir
	}
	return h.playlistDir
}

// WritePlaylist streams content into the host's playlist file over ssh
func (h *SSHHost) WritePlaylist(ctx context.Context, name, content string) error {
	remote := fmt.Sprintf("%s/%s.m3u", h.playlistDir, name)
	cmd := exec.CommandContext(ctx, "ssh", h.target(), "cat > "+shellQuote(remote))
	cmd.Stdin = strings.NewReader(content)

	if out, err := cmd.CombinedOutput(); err != nil {
		return apperrors.ExternalToolError("ssh", err).
			WithDetail("remote", remote).
			WithDetail("output", string(out))
	}
	return nil
}

// Rescan triggers an MPD database update scoped to libraryPath
func (h *SSHHost) Rescan(ctx context.Context, libraryPath string) error {
	args := []string{}
	if h.mpdHost != "" {
		args = append(args, "-h", h.mpdHost)
	}
	if h.mpdPort > 0 {
		args = append(args, "-p", fmt.Sprintf("%d", h.mpdPort))
	}
	args = append(args, "update", libraryPath)

	if err := h.run(ctx, "mpc", args...); err != nil {
		return apperrors.ExternalToolError("mpc", err).
			WithDetail("path", libraryPath)
	}
	return nil
}

// PathOnHost translates a local path through the configured mount map
func (h *SSHHost) PathOnHost(localPath string) string {
	return h.mounts.Translate(localPath)
}

func (h *SSHHost) run(ctx context.Context, name string, args ...string) error {
	log.Printf("[DEBUG] Running %s %v", name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// shellQuote single-quotes s for the remote shell
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
