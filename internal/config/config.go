// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"github.com/okian/bingo/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CatalogPath points at a .json/.yaml goal catalog. Empty uses the
	// embedded catalog.
	CatalogPath string `koanf:"catalog_path"`

	// BoardSize is the default number of cells.
	BoardSize int `koanf:"board_size"`

	// EasyCount, NormalCount and HardCount form the default difficulty mix.
	// They must sum to BoardSize.
	EasyCount   int `koanf:"easy_count"`
	NormalCount int `koanf:"normal_count"`
	HardCount   int `koanf:"hard_count"`

	// MaxRetries bounds draws per cell before generation gives up.
	MaxRetries int `koanf:"max_retries"`

	// MaxSessions caps concurrently open sessions.
	MaxSessions int `koanf:"max_sessions"`

	// BoardHistory is how many generated boards are kept for lookup.
	BoardHistory int `koanf:"board_history"`

	// MaxListLimit caps GET /boards?limit.
	MaxListLimit int `koanf:"max_list_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":9080",
		BoardSize:    25,
		EasyCount:    8,
		NormalCount:  9,
		HardCount:    8,
		MaxRetries:   1000,
		MaxSessions:  1000,
		BoardHistory: 1000,
		MaxListLimit: 100,
	}
}

// Mix returns the default difficulty mix.
func (c *Config) Mix() model.Mix {
	return model.Mix{Easy: c.EasyCount, Normal: c.NormalCount, Hard: c.HardCount}
}
