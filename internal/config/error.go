// internal/config/error.go
package config

import (
	"fmt"
	"strings"
)

// ConfigError aggregates configuration problems found at load time.
type ConfigError struct {
	Path   string   // Config file path
	Errors []string // Validation errors
}

func (e *ConfigError) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}

	parts := []string{fmt.Sprintf("config %s: validation failed:", e.Path)}
	for _, err := range e.Errors {
		parts = append(parts, fmt.Sprintf("  - %s", err))
	}
	return strings.Join(parts, "\n")
}

// HasErrors returns true if there are any errors.
func (e *ConfigError) HasErrors() bool {
	return len(e.Errors) > 0
}
