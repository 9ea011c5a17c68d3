// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// Cache validation
	if c.Cache.TTLDays < 0 {
		errs = append(errs, fmt.Sprintf("cache.ttl_days: must be positive, got %d", c.Cache.TTLDays))
	}
	if c.Cache.KeptVersions < 1 {
		errs = append(errs, fmt.Sprintf("cache.kept_versions: must be at least 1, got %d", c.Cache.KeptVersions))
	}

	// Portal validation
	if c.Portal.BaseURL != "" {
		u, err := url.Parse(c.Portal.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("portal.base_url: must be an absolute URL, got %q", c.Portal.BaseURL))
		}
	}
	if c.Portal.Timeout < 0 {
		errs = append(errs, "portal.timeout: must be positive")
	}
	if c.Portal.RequestInterval < 0 {
		errs = append(errs, "portal.request_interval: must be positive")
	}

	// Queue validation
	if c.Queue.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("queue.batch_size: must be at least 1, got %d", c.Queue.BatchSize))
	}
	if c.Queue.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("queue.max_retries: must not be negative, got %d", c.Queue.MaxRetries))
	}

	return errs
}
