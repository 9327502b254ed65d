package config

import (
	"github.com/jpalmerr/streamcheck"
)

// InlinePlaylist is the playlist name of the endpoints listed in the config file.
const InlinePlaylist = "config"

// Options converts parsed configuration into Checker options.
func Options(cfg *Config) []streamcheck.Option {
	opts := []streamcheck.Option{
		streamcheck.WithConcurrency(cfg.Concurrency),
		streamcheck.WithTimeout(cfg.Timeout.Duration()),
		streamcheck.WithThreshold(cfg.ThresholdMs),
	}

	if cfg.RateLimit > 0 {
		opts = append(opts, streamcheck.WithRateLimit(cfg.RateLimit))
	}

	if cfg.UserAgent != "" {
		opts = append(opts, streamcheck.WithUserAgent(cfg.UserAgent))
	}

	return opts
}

// Endpoints converts the inline endpoint list into endpoints, in file order.
func Endpoints(cfg *Config) ([]streamcheck.Endpoint, error) {
	endpoints := make([]streamcheck.Endpoint, 0, len(cfg.Endpoints))
	for _, ec := range cfg.Endpoints {
		ep, err := streamcheck.NewEndpoint(ec.Name, ec.URL)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}
