package config

import (
	"fmt"
	"os"
)

// Validate rejects a configuration the façade cannot safely start with.
func (c *Config) Validate() error {
	if c.RootPath == "" {
		return fmt.Errorf("root_path is required")
	}
	if err := isWritable(c.RootPath); err != nil {
		return fmt.Errorf("root_path is not writable: %w", err)
	}
	if c.DefaultMaxKeys <= 0 || c.DefaultMaxKeys > 1000 {
		return fmt.Errorf("default_max_keys must be between 1 and 1000")
	}
	if c.ChunkSizeBytes <= 0 {
		return fmt.Errorf("chunk_size_bytes must be positive")
	}
	if c.MetricsEnabled && (c.MetricsPort < 1 || c.MetricsPort > 65535) {
		return fmt.Errorf("invalid metrics_port: %d", c.MetricsPort)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

func isWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := dir + "/.write_probe"
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}
