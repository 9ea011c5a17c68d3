// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Portal PortalConfig `toml:"portal"`
	Queue  QueueConfig  `toml:"queue"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type CacheConfig struct {
	Path         string `toml:"path"`
	TTLDays      int    `toml:"ttl_days"`
	KeptVersions int    `toml:"kept_versions"`
}

type PortalConfig struct {
	BaseURL         string        `toml:"base_url"`
	Timeout         time.Duration `toml:"timeout"`
	RequestInterval time.Duration `toml:"request_interval"`
	UserAgent       string        `toml:"user_agent"`
}

type QueueConfig struct {
	BatchSize  int           `toml:"batch_size"`
	DrainDelay time.Duration `toml:"drain_delay"`
	MaxRetries int           `toml:"max_retries"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "./data/makovod.db"
	}
	if c.Cache.TTLDays == 0 {
		c.Cache.TTLDays = 30
	}
	if c.Cache.KeptVersions == 0 {
		c.Cache.KeptVersions = 3
	}
	if c.Portal.Timeout == 0 {
		c.Portal.Timeout = 10 * time.Second
	}
	if c.Portal.RequestInterval == 0 {
		c.Portal.RequestInterval = time.Second
	}
	if c.Queue.BatchSize == 0 {
		c.Queue.BatchSize = 5
	}
	if c.Queue.DrainDelay == 0 {
		c.Queue.DrainDelay = 2 * time.Second
	}
	if c.Queue.MaxRetries == 0 {
		c.Queue.MaxRetries = 3
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
