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
)

const (
	envPrefix  = "COURTLINE_"
	envFileVar = "COURTLINE_CONFIG"
	// envNestSep separates nested keys in variable names:
	// COURTLINE_MODEL__HOME_EDGE_POINTS -> model.home_edge_points.
	envNestSep = "__"
)

// Slice keys that replace the defaults instead of merging into them.
var sliceKeys = []string{"cors_origins", "feeds", "fallback.tempo", "fallback.offense", "fallback.defense"} //nolint:gochecknoglobals // fixed key list

// LoadOption adjusts Load.
type LoadOption func(*loadSettings)

type loadSettings struct {
	path string
}

// WithFile loads path instead of the file named by COURTLINE_CONFIG.
func WithFile(path string) LoadOption {
	return func(s *loadSettings) {
		if path != "" {
			s.path = path
		}
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) from WithFile or COURTLINE_CONFIG
//  3. env (prefix COURTLINE_)
func Load(ctx context.Context, opts ...LoadOption) (*Config, error) {
	s := loadSettings{path: os.Getenv(envFileVar)}
	for _, opt := range opts {
		opt(&s)
	}

	base := New(ctx)
	k := koanf.New(".")

	if s.path != "" {
		if err := k.Load(file.Provider(s.path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, s.path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, envNestSep, ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	resetSlices(k, &cfg)
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resetSlices clears defaults for slice keys that a provider set, so a
// shorter list from file or env is not padded with default elements.
func resetSlices(k *koanf.Koanf, cfg *Config) {
	for _, key := range sliceKeys {
		if !k.Exists(key) {
			continue
		}
		switch key {
		case "cors_origins":
			cfg.CORSOrigins = nil
		case "feeds":
			cfg.Feeds = nil
		case "fallback.tempo":
			cfg.Fallback.Tempo = nil
		case "fallback.offense":
			cfg.Fallback.Offense = nil
		case "fallback.defense":
			cfg.Fallback.Defense = nil
		}
	}
}
