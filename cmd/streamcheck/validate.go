package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates a config file without probing anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a streamcheck configuration file without probing anything.

This command parses the YAML, expands environment variables, applies
STREAMCHECK_* overrides and validates all fields, then prints the effective
settings. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  streamcheck validate -c streamcheck.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	rateLimit := "none"
	if cfg.RateLimit > 0 {
		rateLimit = fmt.Sprintf("%g/s", cfg.RateLimit)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Concurrency:  %d\n", cfg.Concurrency)
	fmt.Fprintf(out, "  Timeout:      %s\n", cfg.Timeout.Duration())
	fmt.Fprintf(out, "  Threshold:    %dms\n", cfg.ThresholdMs)
	fmt.Fprintf(out, "  Rate limit:   %s\n", rateLimit)
	fmt.Fprintf(out, "  Playlists:    %s\n", cfg.PlaylistDir)
	fmt.Fprintf(out, "  Output:       %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "  Endpoints:    %d inline\n", len(cfg.Endpoints))

	return nil
}
