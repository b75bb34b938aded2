// Package config loads bridge client settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"
	"twitter-bridge/codec"
	"twitter-bridge/loadbalance"
	"twitter-bridge/logger"
	"twitter-bridge/registry"

	"github.com/caarlos0/env/v11"
)

// Config describes how to reach the plugin host.
type Config struct {
	// Addrs are plugin host addresses used when no etcd endpoints are set.
	Addrs []string `env:"TWITTER_BRIDGE_ADDRS" envSeparator:"," envDefault:"127.0.0.1:7070"`
	// EtcdEndpoints enables discovery through etcd.
	EtcdEndpoints []string      `env:"TWITTER_BRIDGE_ETCD_ENDPOINTS" envSeparator:","`
	Plugin        string        `env:"TWITTER_BRIDGE_PLUGIN" envDefault:"TwitterPlugin"`
	Codec         string        `env:"TWITTER_BRIDGE_CODEC" envDefault:"json"`
	Balancer      string        `env:"TWITTER_BRIDGE_BALANCER" envDefault:"roundrobin"`
	PoolSize      int           `env:"TWITTER_BRIDGE_POOL_SIZE" envDefault:"2"`
	Timeout       time.Duration `env:"TWITTER_BRIDGE_TIMEOUT" envDefault:"30s"`
	LogLevel      string        `env:"TWITTER_BRIDGE_LOG_LEVEL" envDefault:"warn"`
	LogJSON       bool          `env:"TWITTER_BRIDGE_LOG_JSON"`
}

// Load parses the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if _, err := c.CodecType(); err != nil {
		return err
	}
	if _, err := loadbalance.New(c.Balancer); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.Addrs) == 0 && len(c.EtcdEndpoints) == 0 {
		return fmt.Errorf("no plugin host: set TWITTER_BRIDGE_ADDRS or TWITTER_BRIDGE_ETCD_ENDPOINTS")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive, got %d", c.PoolSize)
	}
	return nil
}

func (c *Config) CodecType() (codec.CodecType, error) {
	return codec.ParseCodecType(c.Codec)
}

func (c *Config) NewBalancer() (loadbalance.Balancer, error) {
	return loadbalance.New(c.Balancer)
}

// NewRegistry returns an etcd registry when endpoints are configured and a
// static one over Addrs otherwise.
func (c *Config) NewRegistry() (registry.Registry, error) {
	if len(c.EtcdEndpoints) > 0 {
		return registry.NewEtcdRegistry(c.EtcdEndpoints)
	}
	return registry.NewStaticRegistry(c.Addrs...), nil
}

// LoggerConfig converts the log settings. Call Validate first.
func (c *Config) LoggerConfig() logger.Config {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return logger.Config{Level: level, JSONFormat: c.LogJSON}
}
