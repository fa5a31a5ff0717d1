package config

import (
	"fmt"
	"log/slog"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config for invalid values and returns all errors found.
// Dangerous zero-values are clamped to safe defaults. Other validation
// errors are logged as warnings but do not prevent startup.
func (c *Config) Validate() []error {
	var errs []error

	// Clamp the chunk size; a zero or negative buffer would stall the
	// read loop.
	if c.ChunkSizeBytes < 4096 {
		errs = append(errs, fmt.Errorf("chunk_size_bytes %d is below minimum 4096, clamping", c.ChunkSizeBytes))
		c.ChunkSizeBytes = 4096
	} else if c.ChunkSizeBytes > 64*1024*1024 {
		errs = append(errs, fmt.Errorf("chunk_size_bytes %d exceeds maximum 67108864, clamping", c.ChunkSizeBytes))
		c.ChunkSizeBytes = 64 * 1024 * 1024
	}

	if c.RequestTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("request_timeout_seconds %d is below minimum 1, clamping", c.RequestTimeoutSeconds))
		c.RequestTimeoutSeconds = 1
	} else if c.RequestTimeoutSeconds > 86400 {
		errs = append(errs, fmt.Errorf("request_timeout_seconds %d exceeds maximum 86400, clamping", c.RequestTimeoutSeconds))
		c.RequestTimeoutSeconds = 86400
	}

	if c.WatchIntervalMs < 10 {
		errs = append(errs, fmt.Errorf("watch_interval_ms %d is below minimum 10, clamping", c.WatchIntervalMs))
		c.WatchIntervalMs = 10
	} else if c.WatchIntervalMs > 60000 {
		errs = append(errs, fmt.Errorf("watch_interval_ms %d exceeds maximum 60000, clamping", c.WatchIntervalMs))
		c.WatchIntervalMs = 60000
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	// Log validation errors as warnings
	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}
