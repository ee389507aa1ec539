package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		// Set default values
		setDefaults()

		// Set up environment variable reading for overrides
		viper.SetEnvPrefix("CASTKEEP")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		// Load config from fixed location (cleaned for safety)
		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		// Try to read the config file
		if err := viper.ReadInConfig(); err != nil {
			// If the config file doesn't exist, just use defaults and env vars
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		// Validate the configuration
		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetString("library.podcasts_dir") == "" {
		return fmt.Errorf("library.podcasts_dir must be configured")
	}

	// Auto-correct invalid retry count; three attempts is the floor
	if viper.GetInt("podcasts.download_retries") < 3 {
		viper.Set("podcasts.download_retries", 3)
	}

	if viper.GetInt("podcasts.scan_limit_default") <= 0 {
		viper.Set("podcasts.scan_limit_default", 200)
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Library.PodcastsDir == "" {
		return fmt.Errorf("library.podcasts_dir must be configured")
	}

	if c.Podcasts.DownloadRetries < 3 {
		c.Podcasts.DownloadRetries = 3
	}

	if c.Podcasts.ScanLimitDefault <= 0 {
		c.Podcasts.ScanLimitDefault = 200
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Environment defaults
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database defaults (download history)
	viper.SetDefault("database.path", "./data/castkeep.db")
	viper.SetDefault("database.verbose", false)

	// Library host defaults
	viper.SetDefault("library.data_dir", "./data/podcasts")
	viper.SetDefault("library.podcasts_dir", "/mnt/media/Podcasts")
	viper.SetDefault("library.prefix", "USB/media/Podcasts")
	viper.SetDefault("library.ssh_host", "")
	viper.SetDefault("library.ssh_user", "")
	viper.SetDefault("library.mpd_host", "")
	viper.SetDefault("library.mpd_port", 6600)
	viper.SetDefault("library.remote_playlist_dir", "/var/lib/mpd/playlists")
	viper.SetDefault("library.remote_cover_dir", "/var/local/www/imagesw/playlist-covers")
	viper.SetDefault("library.mount_from", "/mnt/")
	viper.SetDefault("library.mount_to", "/media/")

	// Podcast sync defaults
	viper.SetDefault("podcasts.scan_limit_default", 200)
	viper.SetDefault("podcasts.scan_limit_max", 500)
	viper.SetDefault("podcasts.download_count_default", 5)
	viper.SetDefault("podcasts.download_count_max", 50)
	viper.SetDefault("podcasts.download_retries", 3)
	viper.SetDefault("podcasts.download_timeout", 2*time.Minute)
	viper.SetDefault("podcasts.feed_timeout", 30*time.Second)
	viper.SetDefault("podcasts.user_agent", "CastkeepAPI/1.0")
	viper.SetDefault("podcasts.auto_sync_interval", 6*time.Hour)
	viper.SetDefault("podcasts.auto_sync_count", 3)

	// Processing defaults (external tools)
	viper.SetDefault("processing.ffmpeg_path", "ffmpeg")
	viper.SetDefault("processing.ffprobe_path", "ffprobe")
	viper.SetDefault("processing.ffmpeg_timeout", 5*time.Minute)

	// Security defaults
	viper.SetDefault("security.api_token", "")
	viper.SetDefault("security.enable_cors", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
}
