package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Library     LibraryConfig    `mapstructure:"library"`
	Podcasts    PodcastsConfig   `mapstructure:"podcasts"`
	Processing  ProcessingConfig `mapstructure:"processing"`
	Security    SecurityConfig   `mapstructure:"security"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains download-history database settings
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// LibraryConfig describes the media library layout and the remote library host.
// PodcastsDir is where subscription folders live locally; Prefix is the same
// location as the library host addresses it. MountFrom/MountTo translate local
// paths to paths valid on the host (e.g. /mnt/... -> /media/...).
type LibraryConfig struct {
	DataDir           string `mapstructure:"data_dir"`
	PodcastsDir       string `mapstructure:"podcasts_dir"`
	Prefix            string `mapstructure:"prefix"`
	SSHHost           string `mapstructure:"ssh_host"`
	SSHUser           string `mapstructure:"ssh_user"`
	MPDHost           string `mapstructure:"mpd_host"`
	MPDPort           int    `mapstructure:"mpd_port"`
	RemotePlaylistDir string `mapstructure:"remote_playlist_dir"`
	RemoteCoverDir    string `mapstructure:"remote_cover_dir"`
	MountFrom         string `mapstructure:"mount_from"`
	MountTo           string `mapstructure:"mount_to"`
}

// PodcastsConfig contains feed scanning and download settings
type PodcastsConfig struct {
	ScanLimitDefault     int           `mapstructure:"scan_limit_default"`
	ScanLimitMax         int           `mapstructure:"scan_limit_max"`
	DownloadCountDefault int           `mapstructure:"download_count_default"`
	DownloadCountMax     int           `mapstructure:"download_count_max"`
	DownloadRetries      int           `mapstructure:"download_retries"`
	DownloadTimeout      time.Duration `mapstructure:"download_timeout"`
	FeedTimeout          time.Duration `mapstructure:"feed_timeout"`
	UserAgent            string        `mapstructure:"user_agent"`
	AutoSyncInterval     time.Duration `mapstructure:"auto_sync_interval"`
	AutoSyncCount        int           `mapstructure:"auto_sync_count"`
}

// ProcessingConfig contains external tool settings
type ProcessingConfig struct {
	FFmpegPath    string        `mapstructure:"ffmpeg_path"`
	FFprobePath   string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	APIToken   string `mapstructure:"api_token"`
	EnableCORS bool   `mapstructure:"enable_cors"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}
