package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VIGIL_CONFIG is set
//  3. env (prefix VIGIL_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("VIGIL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: VIGIL_ADDR, VIGIL_DENY_AT, ...
	// Map env keys like VIGIL_DENY_AT -> deny_at (flat keys).
	envProvider := env.Provider("VIGIL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "vigil_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.LayerTimeoutMS <= 0 {
		return errors.New("layer_timeout_ms must be positive")
	}
	if c.AllowBelow < 0 || c.AllowBelow > 1 || c.DenyAt < 0 || c.DenyAt > 1 {
		return errors.New("thresholds must lie in [0,1]")
	}
	if c.AllowBelow >= c.DenyAt {
		return errors.New("allow_below must be below deny_at")
	}
	if c.GeoCeilingKMH <= 0 {
		return errors.New("geo_ceiling_kmh must be positive")
	}
	return nil
}
