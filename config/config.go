// Package config provides YAML configuration parsing for streamcheck.
//
// Every field is optional. An empty file or an empty document yields
// [Default]; [Load] fails for a file that cannot be read. The command runs on
// the defaults when no config file is given.
//
// Example configuration:
//
//	concurrency: 50
//	timeout: 10s
//	threshold_ms: 5000
//	playlist_dir: playlists
//	output_dir: ${STREAMCHECK_HOME:-.}/output
//	json_report: true
//
//	log:
//	  level: info
//	  file: /var/log/streamcheck.log
//
//	endpoints:
//	  - name: Jazz FM
//	    url: https://stream.example.com/jazz
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/streamcheck"
)

// EnvPrefix is the prefix of environment overrides read by [ApplyEnv].
const EnvPrefix = "STREAMCHECK"

// Config is the root configuration structure for the streamcheck command.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Concurrency caps probes in flight. Defaults to 50.
	Concurrency int `yaml:"concurrency"`

	// Timeout bounds a single probe, connect through response headers.
	// Accepts duration strings like "10s", "500ms". Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// ThresholdMs is the latency cutoff of the verified playlist. Defaults to 5000.
	ThresholdMs int64 `yaml:"threshold_ms"`

	// RateLimit caps probe launches per second. Zero disables it.
	RateLimit float64 `yaml:"rate_limit"`

	// UserAgent is sent with every probe.
	UserAgent string `yaml:"user_agent"`

	// PlaylistDir is scanned for playlists. Defaults to "playlists".
	PlaylistDir string `yaml:"playlist_dir"`

	// OutputDir receives the verified playlists. Defaults to "output".
	OutputDir string `yaml:"output_dir"`

	// ParallelPlaylists is how many playlists are checked at once. Defaults to 1.
	ParallelPlaylists int `yaml:"parallel_playlists"`

	// JSONReport also writes a JSON report next to every verified playlist.
	JSONReport bool `yaml:"json_report"`

	// MetricsFile, when set, receives Prometheus metrics in textfile format.
	MetricsFile string `yaml:"metrics_file"`

	// Log configures the command's logger.
	Log LogConfig `yaml:"log"`

	// Endpoints is an inline list checked as its own pass.
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is text or json. Defaults to json.
	Format string `yaml:"format"`

	// File, when set, also writes logs to a rotated file.
	File string `yaml:"file"`

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// EndpointConfig defines a single stream endpoint.
type EndpointConfig struct {
	// Name is the station name written to the verified playlist.
	Name string `yaml:"name"`

	// URL is the stream address.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Concurrency:       streamcheck.DefaultConcurrency,
		Timeout:           Duration(streamcheck.DefaultTimeout),
		ThresholdMs:       streamcheck.DefaultThresholdMs,
		UserAgent:         streamcheck.DefaultUserAgent,
		PlaylistDir:       "playlists",
		OutputDir:         "output",
		ParallelPlaylists: 1,
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data on top of [Default].
//
// Environment variables are expanded in endpoint URLs, the user agent,
// directories and file paths.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expand substitutes environment variables in string fields.
func (c *Config) expand() error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"user_agent", &c.UserAgent},
		{"playlist_dir", &c.PlaylistDir},
		{"output_dir", &c.OutputDir},
		{"metrics_file", &c.MetricsFile},
		{"log.file", &c.Log.File},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.ptr)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = expanded
	}

	for i := range c.Endpoints {
		ep := &c.Endpoints[i]
		expanded, err := expandEnvVars(ep.URL)
		if err != nil {
			return fmt.Errorf("endpoints[%d] (%s): url: %w", i, ep.Name, err)
		}
		ep.URL = expanded
	}

	return nil
}

// Validate checks the configuration. It is called by [Parse]; callers that
// modify a Config afterwards, for example with [ApplyEnv] or command line
// flags, should call it again.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Timeout.Duration() <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout.Duration())
	}
	if c.ThresholdMs < 0 {
		return fmt.Errorf("threshold_ms must not be negative, got %d", c.ThresholdMs)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}
	if c.PlaylistDir == "" {
		return fmt.Errorf("playlist_dir cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}
	if c.ParallelPlaylists <= 0 {
		return fmt.Errorf("parallel_playlists must be positive, got %d", c.ParallelPlaylists)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings must not be negative")
	}

	for i, ep := range c.Endpoints {
		if ep.Name == "" {
			return fmt.Errorf("endpoints[%d]: name is required", i)
		}
		if ep.URL == "" {
			return fmt.Errorf("endpoints[%d] (%s): url is required", i, ep.Name)
		}

		parsedURL, err := url.Parse(ep.URL)
		if err != nil {
			return fmt.Errorf("endpoints[%d] (%s): invalid url: %w", i, ep.Name, err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("endpoints[%d] (%s): url scheme must be http or https, got %q", i, ep.Name, parsedURL.Scheme)
		}
	}

	return nil
}

// envOverrides holds the STREAMCHECK_* variables. Unset variables leave
// their field nil so the file value is kept.
type envOverrides struct {
	Concurrency *int           `envconfig:"CONCURRENCY"`
	Timeout     *time.Duration `envconfig:"TIMEOUT"`
	ThresholdMs *int64         `envconfig:"THRESHOLD_MS"`
	RateLimit   *float64       `envconfig:"RATE_LIMIT"`
	PlaylistDir *string        `envconfig:"PLAYLIST_DIR"`
	OutputDir   *string        `envconfig:"OUTPUT_DIR"`
	LogLevel    *string        `envconfig:"LOG_LEVEL"`
	MetricsFile *string        `envconfig:"METRICS_FILE"`
}

// ApplyEnv overrides cfg with STREAMCHECK_* environment variables, for
// example STREAMCHECK_CONCURRENCY=100 or STREAMCHECK_TIMEOUT=5s.
//
// The result is validated.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.Concurrency != nil {
		cfg.Concurrency = *env.Concurrency
	}
	if env.Timeout != nil {
		cfg.Timeout = Duration(*env.Timeout)
	}
	if env.ThresholdMs != nil {
		cfg.ThresholdMs = *env.ThresholdMs
	}
	if env.RateLimit != nil {
		cfg.RateLimit = *env.RateLimit
	}
	if env.PlaylistDir != nil {
		cfg.PlaylistDir = *env.PlaylistDir
	}
	if env.OutputDir != nil {
		cfg.OutputDir = *env.OutputDir
	}
	if env.LogLevel != nil {
		cfg.Log.Level = strings.ToLower(*env.LogLevel)
	}
	if env.MetricsFile != nil {
		cfg.MetricsFile = *env.MetricsFile
	}

	return cfg.Validate()
}
