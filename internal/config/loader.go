package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/bingo/pkg/logger"
)

// Environment variable names.
const (
	EnvPrefix     = "BINGO_"
	EnvConfigFile = "BINGO_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BINGO_CONFIG is set
//  3. env (prefix BINGO_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like BINGO_EASY_COUNT -> easy_count (flat keys).
	// BINGO_CONFIG itself is not a config key.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		if s == EnvConfigFile {
			return ""
		}
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and that the default mix fills the board.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return invalid("addr", "must not be empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return invalid("log_level", "%v", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return invalid("log_format", "must be text or json, got %q", c.LogFormat)
	}
	if c.BoardSize <= 0 {
		return invalid("board_size", "must be positive, got %d", c.BoardSize)
	}
	if c.EasyCount < 0 || c.NormalCount < 0 || c.HardCount < 0 {
		return invalid("mix", "counts must not be negative")
	}
	if total := c.Mix().Total(); total != c.BoardSize {
		return invalid("mix", "easy+normal+hard = %d, board_size = %d", total, c.BoardSize)
	}
	if c.MaxRetries <= 0 {
		return invalid("max_retries", "must be positive, got %d", c.MaxRetries)
	}
	if c.MaxSessions <= 0 {
		return invalid("max_sessions", "must be positive, got %d", c.MaxSessions)
	}
	if c.BoardHistory <= 0 {
		return invalid("board_history", "must be positive, got %d", c.BoardHistory)
	}
	if c.MaxListLimit <= 0 {
		return invalid("max_list_limit", "must be positive, got %d", c.MaxListLimit)
	}
	return nil
}
