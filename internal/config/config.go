// Package config loads the netlayer CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shinyes/netlayer/internal/addr"
	"github.com/shinyes/netlayer/log"
	"github.com/shinyes/netlayer/transport"
)

// Config holds the CLI configuration. Durations use Go syntax ("10s", "500ms").
type Config struct {
	Listen               string        `yaml:"listen"`
	Peers                []string      `yaml:"peers"`
	DialTimeout          time.Duration `yaml:"dial_timeout"`
	ReadTimeout          time.Duration `yaml:"read_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	MaxPayloadSize       int64         `yaml:"max_payload_size"`
	BroadcastConcurrency int           `yaml:"broadcast_concurrency"`
	LogLevel             string        `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	d := transport.DefaultConfig()
	return &Config{
		Listen:               "127.0.0.1:8082",
		DialTimeout:          d.DialTimeout,
		ReadTimeout:          d.ReadTimeout,
		WriteTimeout:         d.WriteTimeout,
		MaxPayloadSize:       d.MaxPayloadSize,
		BroadcastConcurrency: d.BroadcastConcurrency,
		LogLevel:             "info",
	}
}

// DefaultPath returns ~/.netlayer/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".netlayer", "config.yaml")
	}
	return filepath.Join(home, ".netlayer", "config.yaml")
}

// Load reads the YAML file at path over the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks addresses and the log level. Numeric limits are left to
// transport.Config.Validate.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := addr.Parse(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen: %w", err))
	}
	for _, p := range c.Peers {
		if _, _, err := addr.Parse(p); err != nil {
			errs = append(errs, fmt.Errorf("peers: %w", err))
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options converts the file settings into transport options.
func (c *Config) Options() []transport.Option {
	return []transport.Option{
		transport.WithDialTimeout(c.DialTimeout),
		transport.WithReadTimeout(c.ReadTimeout),
		transport.WithWriteTimeout(c.WriteTimeout),
		transport.WithMaxPayloadSize(c.MaxPayloadSize),
		transport.WithBroadcastConcurrency(c.BroadcastConcurrency),
	}
}
