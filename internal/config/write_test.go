package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, WriteDefault(path))

	// The written file must load back with the shipped defaults.
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8787, cfg.Server.Port)
	assert.Equal(t, "https://www.mako.co.il", cfg.Portal.BaseURL)
	assert.Equal(t, 30, cfg.Cache.TTLDays)
	assert.Empty(t, cfg.Validate())
}
