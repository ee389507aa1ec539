package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/castkeep/castkeep-api/api"
	apitypes "github.com/castkeep/castkeep-api/api/types"
	apiversion "github.com/castkeep/castkeep-api/api/version"
	"github.com/castkeep/castkeep-api/internal/database"
	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/catalog"
	"github.com/castkeep/castkeep-api/internal/services/cleanup"
	"github.com/castkeep/castkeep-api/internal/services/downloads"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	"github.com/castkeep/castkeep-api/internal/services/library"
	"github.com/castkeep/castkeep-api/internal/services/scheduler"
	"github.com/castkeep/castkeep-api/internal/services/subscriptions"
	syncservice "github.com/castkeep/castkeep-api/internal/services/sync"
	"github.com/castkeep/castkeep-api/pkg/config"
	"github.com/castkeep/castkeep-api/pkg/download"
	"github.com/castkeep/castkeep-api/pkg/ffmpeg"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the podcast sync API server with the configured settings.

The server reconciles subscribed feeds with the local download directory,
installs episodes atomically and keeps per-subscription catalogs and
playlists in sync with the library host.

Example:
  castkeep-api serve
  castkeep-api serve --port 9090
  castkeep-api serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	// Version endpoint reflects build-time information
	apiversion.Version = Version
	apiversion.GitCommit = GitCommit
	apiversion.BuildDate = BuildDate

	deps, sched, db, err := buildDependencies(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	server := api.NewServer(fmt.Sprintf("%s:%d", serverHost, serverPort))
	server.SetDependencies(deps)
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if sched != nil {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start auto-sync scheduler: %w", err)
		}
		defer sched.Stop()
	}

	// Crashed installs leave dot-prefixed temp files behind; sweep them
	// now and then periodically
	sweeper := cleanup.NewService(cfg.Library.PodcastsDir, 24*time.Hour, 6*time.Hour)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	log.Printf("[INFO] Server listening on %s:%d", serverHost, serverPort)

	select {
	case <-stop:
		log.Printf("[INFO] Shutting down server")
	case err := <-serverErr:
		log.Printf("[ERROR] %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Printf("[INFO] Server gracefully stopped")
	return nil
}

// buildDependencies wires every service the handlers need
func buildDependencies(cfg *config.Config) (*apitypes.Dependencies, *scheduler.Scheduler, *database.DB, error) {
	if err := os.MkdirAll(cfg.Library.PodcastsDir, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create podcasts directory: %w", err)
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.AutoMigrate(&models.DownloadRecord{}); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	downloader := download.NewDownloader(download.Options{
		Timeout:   cfg.Podcasts.DownloadTimeout,
		Retries:   cfg.Podcasts.DownloadRetries,
		Backoff:   download.DefaultOptions().Backoff,
		MaxSize:   download.DefaultOptions().MaxSize,
		UserAgent: cfg.Podcasts.UserAgent,
	})
	identity := feed.NewIdentity(downloader)

	// Short TTL keeps status polling off the remote feed servers
	fetcher := feed.NewCachedFetcher(
		feed.NewFetcher(cfg.Podcasts.FeedTimeout, cfg.Podcasts.UserAgent),
		30*time.Second,
	)

	tagger := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)
	if err := tagger.ValidateBinaries(); err != nil {
		log.Printf("[WARN] ffmpeg not fully available, tagging will degrade: %v", err)
	}

	host := buildLibraryHost(cfg)
	store := catalog.NewStore()
	registry := subscriptions.NewRegistry(filepath.Join(cfg.Library.PodcastsDir, "subscriptions.json"))

	downloadsService := downloads.NewService(downloads.NewRepository(db.DB))
	installer := syncservice.NewInstaller(downloader, identity, tagger, downloadsService)

	syncSvc := syncservice.NewService(
		registry, fetcher, downloader, identity, installer, store, host,
		cfg.Podcasts.ScanLimitDefault, cfg.Podcasts.DownloadCountMax,
	)

	subsSvc := subscriptions.NewService(
		registry, fetcher, downloader, host, store, syncSvc,
		cfg.Library.PodcastsDir, cfg.Library.Prefix,
		subscriptions.Limits{
			ScanLimitDefault:     cfg.Podcasts.ScanLimitDefault,
			ScanLimitMax:         cfg.Podcasts.ScanLimitMax,
			DownloadCountDefault: cfg.Podcasts.DownloadCountDefault,
			DownloadCountMax:     cfg.Podcasts.DownloadCountMax,
		},
	)

	var sched *scheduler.Scheduler
	if cfg.Podcasts.AutoSyncInterval > 0 {
		sched = scheduler.New(registry, syncSvc, cfg.Podcasts.AutoSyncInterval, cfg.Podcasts.AutoSyncCount)
	} else {
		log.Printf("[INFO] Auto-sync disabled (auto_sync_interval is 0)")
	}

	return &apitypes.Dependencies{
		DB:            db,
		Registry:      registry,
		Subscriptions: subsSvc,
		Sync:          syncSvc,
		Downloads:     downloadsService,
	}, sched, db, nil
}

// buildLibraryHost picks the SSH-backed host when one is configured
func buildLibraryHost(cfg *config.Config) library.Host {
	mounts := library.MountMap{From: cfg.Library.MountFrom, To: cfg.Library.MountTo}
	if cfg.Library.SSHHost == "" {
		return library.NewNoopHost(mounts)
	}
	return library.NewSSHHost(library.SSHConfig{
		Host:        cfg.Library.SSHHost,
		User:        cfg.Library.SSHUser,
		MPDHost:     cfg.Library.MPDHost,
		MPDPort:     cfg.Library.MPDPort,
		PlaylistDir: cfg.Library.RemotePlaylistDir,
		CoverDir:    cfg.Library.RemoteCoverDir,
		Mounts:      mounts,
	})
}
