// Package config reads and writes the client's ~/.letschat/config.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds client and daemon settings.
type Config struct {
	// ServerURL points the client at a running backend; empty means the
	// client runs against the in-process fixture backend.
	ServerURL string `toml:"server_url"`

	// Listen is the daemon's bind address.
	Listen string `toml:"listen"`

	// DBPath overrides the daemon's fixture database; empty keeps it
	// in memory.
	DBPath string `toml:"db_path"`

	// Simulated latency, in milliseconds. Negative disables the default.
	ReadLatencyMS int `toml:"read_latency_ms"`
	WriteMinMS    int `toml:"write_latency_min_ms"`
	WriteMaxMS    int `toml:"write_latency_max_ms"`

	// Per-client request rate limiting; zero disables it.
	RateLimitRPS float64 `toml:"rate_limit_rps"`
	RateBurst    int     `toml:"rate_burst"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Listen:         "127.0.0.1:8384",
		ReadLatencyMS:  1000,
		WriteMinMS:     500,
		WriteMaxMS:     2000,
	}
}

// Load reads config from the given path.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
