// Package config loads process configuration for storagecore via
// spf13/viper, merging a config file with STORAGECORE_-prefixed
// environment variables. It is scoped to the storage core itself: there
// is no HTTP gateway process here, so server/TLS/cluster/tenancy sections
// a full gateway would need are out of scope.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the façade's runtime configuration.
type Config struct {
	RootPath            string `mapstructure:"root_path"`
	TestMode            bool   `mapstructure:"test_mode"`
	OrphanUploadAgeHours int   `mapstructure:"orphan_upload_age_hours"`
	DefaultMaxKeys       int   `mapstructure:"default_max_keys"`
	ChunkSizeBytes       int   `mapstructure:"chunk_size_bytes"`
	LogLevel             string `mapstructure:"log_level"`
	MetricsEnabled       bool   `mapstructure:"metrics_enabled"`
	MetricsPort          int    `mapstructure:"metrics_port"`
	EventsWebsocketAddr  string `mapstructure:"events_websocket_addr"`
	AuditRetentionDays   int    `mapstructure:"audit_retention_days"`
}

// OrphanUploadAge returns OrphanUploadAgeHours as a time.Duration.
func (c *Config) OrphanUploadAge() time.Duration {
	return time.Duration(c.OrphanUploadAgeHours) * time.Hour
}

// Load reads configuration from path (if non-empty) or the usual search
// locations, then from STORAGECORE_-prefixed environment variables,
// applying defaults for anything left unset.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("root_path", "./data")
	v.SetDefault("test_mode", false)
	v.SetDefault("orphan_upload_age_hours", 24*7)
	v.SetDefault("default_max_keys", 1000)
	v.SetDefault("chunk_size_bytes", 64*1024)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_port", 9090)
	v.SetDefault("events_websocket_addr", "")
	v.SetDefault("audit_retention_days", 90)

	v.SetEnvPrefix("STORAGECORE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("storagecore")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/storagecore")
		v.AddConfigPath("/etc/storagecore")

		_ = v.ReadInConfig() // no config file is a valid configuration
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
