package cmd

import (
	"fmt"
	"os"

	"github.com/castkeep/castkeep-api/pkg/config"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "castkeep-api",
	Short: "Podcast subscription sync API server",
	Long: `Castkeep API - a podcast subscription and download synchronization service

The service reconciles remote syndication feeds with a local download
directory and a persisted per-subscription catalog. Downloads are
content-addressed and installed atomically, and every catalog change
regenerates the subscription's playlist for the library host.

Features:
  • Subscription lifecycle (subscribe, settings, unsubscribe)
  • Idempotent content-addressed episode downloads
  • Cover art embedding and ID3 tagging via ffmpeg
  • Catalog and playlist rebuild (self-healing)
  • Remote library cover push and rescan`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig loads the configuration when a command needs it.
// Called lazily so version/help work without a config file present.
func loadConfig() {
	cmd, _, _ := rootCmd.Find(os.Args[1:])
	if cmd != nil && (cmd.Name() == "version" || cmd.Name() == "help") {
		return
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}
