package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   "server.port",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Server.LogLevel = "verbose" },
			want:   "server.log_level",
		},
		{
			name:   "negative ttl",
			mutate: func(c *Config) { c.Cache.TTLDays = -1 },
			want:   "cache.ttl_days",
		},
		{
			name:   "zero kept versions",
			mutate: func(c *Config) { c.Cache.KeptVersions = 0 },
			want:   "cache.kept_versions",
		},
		{
			name:   "relative base url",
			mutate: func(c *Config) { c.Portal.BaseURL = "portal.example/path" },
			want:   "portal.base_url",
		},
		{
			name:   "zero batch size",
			mutate: func(c *Config) { c.Queue.BatchSize = 0 },
			want:   "queue.batch_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if assert.Len(t, errs, 1) {
				assert.Contains(t, errs[0], tt.want)
			}
		})
	}
}
