// Package main is the entry point for the streamcheck CLI.
//
// streamcheck probes every stream listed in a directory of playlists and
// writes a verified playlist of the streams that answered within the
// latency threshold.
//
// Usage:
//
//	streamcheck check                     # Check every playlist in playlists/
//	streamcheck check -c streamcheck.yaml # Check with a config file
//	streamcheck check radio.m3u news.txt  # Check specific playlists
//	streamcheck validate -c config.yaml   # Validate configuration
//	streamcheck version                   # Show version info
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "streamcheck",
	Short: "Verify stream playlists for reachability and latency",
	Long: `streamcheck probes audio stream endpoints and keeps the good ones.

Every address in a playlist is checked with a HEAD request. Streams that
answer with a non-error status within the latency threshold are written,
in their original order, to a verified playlist.

Quick start:
  1. Put .m3u or .txt playlists in ./playlists
  2. Run: streamcheck check
  3. Load ./output/verified_streams_<playlist>_<time>.m3u in your player

Example config:
  concurrency: 50
  timeout: 10s
  threshold_ms: 5000
  playlist_dir: playlists
  output_dir: output`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv()
	},
}

// loadDotEnv loads a .env file from the working directory if there is one.
// Variables already set in the environment take precedence.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this streamcheck binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "streamcheck %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
