// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/remixblog")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_File(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/remixblog")
	t.Setenv("SESSION_SECRET", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "environment: production\nlisten_addr: \":3000\"\nlog_format: text\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MissingFileIsSkipped(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/remixblog")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_SecretRotationList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/remixblog")
	t.Setenv("SESSION_SECRET", "new-secret, old-secret,")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-secret", "old-secret"}, cfg.SessionSecrets)
}

func TestLoad_FlagsOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/remixblog")
	t.Setenv("SESSION_SECRET", "s3cret")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen_addr", ":8080", "")
	require.NoError(t, flags.Parse([]string{"--listen_addr", ":4000"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.ListenAddr)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name        string
		databaseURL string
		secret      string
		wantErr     string
	}{
		{name: "missing database url", secret: "s3cret", wantErr: "database_url is required"},
		{name: "missing session secret", databaseURL: "postgres://localhost/db", wantErr: "session secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", tt.databaseURL)
			t.Setenv("SESSION_SECRET", tt.secret)

			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_EmptySecretEntry(t *testing.T) {
	cfg := &Config{
		DatabaseURL:    "postgres://localhost/db",
		SessionSecrets: []string{"good", ""},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")
}
