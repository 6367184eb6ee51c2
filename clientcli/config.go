package clientcli

import (
	"os"
	"time"
)

// DefaultEndpoint is used when no profile, env var or flag names a gateway.
const DefaultEndpoint = "http://localhost:3000"

// Environment variables the CLI reads.
const (
	EnvEndpoint = "FILEGATE_ENDPOINT"
	EnvTimeout  = "FILEGATE_TIMEOUT"
	EnvProfile  = "FILEGATE_PROFILE"
	EnvConfig   = "FILEGATE_CONFIG"
)

// Config is the resolved client setting for one gateway. Zero fields mean
// "not set" and fall back to defaults in New.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func (c *Config) WithDefaults() *Config {
	out := *c
	if out.Endpoint == "" {
		out.Endpoint = DefaultEndpoint
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return &out
}

func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{Endpoint: p.Endpoint, Timeout: p.Timeout}
}

// ConfigFromEnv reads FILEGATE_ENDPOINT and FILEGATE_TIMEOUT. An unparsable
// timeout is ignored.
func ConfigFromEnv() *Config {
	cfg := &Config{Endpoint: os.Getenv(EnvEndpoint)}
	if d, err := time.ParseDuration(os.Getenv(EnvTimeout)); err == nil {
		cfg.Timeout = d
	}
	return cfg
}

func ProfileFromEnv() string    { return os.Getenv(EnvProfile) }
func ConfigPathFromEnv() string { return os.Getenv(EnvConfig) }

// MergeConfig layers configs left to right. A set field in a later config
// replaces the earlier value; zero fields never do. nil entries are skipped.
func MergeConfig(configs ...*Config) *Config {
	out := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		if cfg.Endpoint != "" {
			out.Endpoint = cfg.Endpoint
		}
		if cfg.Timeout > 0 {
			out.Timeout = cfg.Timeout
		}
	}
	return out
}
