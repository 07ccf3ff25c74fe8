// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, environment variables, and command-line flags, in that order
// of increasing precedence.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvProduction enables production behavior such as Secure cookies.
const EnvProduction = "production"

// Config holds all service configuration.
type Config struct {
	Environment    string   `koanf:"environment"`
	ListenAddr     string   `koanf:"listen_addr"`
	MetricsAddr    string   `koanf:"metrics_addr"`
	DatabaseURL    string   `koanf:"database_url"`
	SessionSecrets []string `koanf:"session_secrets"`
	LogFormat      string   `koanf:"log_format"`
	MigrateOnStart bool     `koanf:"migrate_on_start"`
}

// defaults returns the baseline configuration values.
func defaults() map[string]any {
	return map[string]any{
		"environment":      "development",
		"listen_addr":      ":8080",
		"metrics_addr":     ":9090",
		"log_format":       "json",
		"migrate_on_start": true,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or the file does not exist), REMIXBLOG_* environment
// variables, and finally the given flag set. SESSION_SECRET and DATABASE_URL
// are also honored without the prefix for compatibility with common
// deployment tooling.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").
					With("source", "file").
					With("path", path).
					Wrap(err)
			}
		}
	}

	err := k.Load(env.Provider("REMIXBLOG_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "REMIXBLOG_"))
	}), nil)
	if err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		_ = k.Set("database_url", v)
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		_ = k.Set("session_secrets", splitSecrets(v))
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if len(c.SessionSecrets) == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("at least one session secret is required")
	}
	for _, s := range c.SessionSecrets {
		if s == "" {
			return oops.Code("CONFIG_INVALID").Errorf("session secrets must not be empty")
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// splitSecrets parses a comma-separated secret list. The first entry signs
// new sessions; the rest remain valid for verification during rotation.
func splitSecrets(s string) []string {
	parts := strings.Split(s, ",")
	secrets := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			secrets = append(secrets, trimmed)
		}
	}
	return secrets
}
