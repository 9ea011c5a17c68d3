// internal/config/write.go
package config

import (
	_ "embed"
	"os"
	"path/filepath"
)

//go:embed default_config.toml
var defaultConfig string

// WriteDefault writes the commented example config to the specified
// path, creating parent directories as needed.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
