package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	e := &ConfigError{
		Path:   "/etc/makovod/config.toml",
		Errors: []string{"server.port: must be between 1 and 65535, got 0"},
	}

	assert.True(t, e.HasErrors())
	assert.Contains(t, e.Error(), "/etc/makovod/config.toml")
	assert.Contains(t, e.Error(), "server.port")
}

func TestConfigError_Empty(t *testing.T) {
	e := &ConfigError{Path: "config.toml"}

	assert.False(t, e.HasErrors())
	assert.Empty(t, e.Error())
}
