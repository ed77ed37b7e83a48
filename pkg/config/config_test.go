/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/cortex/pkg/logger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func clearEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{"CONFIG_SOURCE", "CORTEX_BACKEND_BASE_URL", "NEXT_PUBLIC_API_BASE_URL", "CORTEX_CONFIG_JSON"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(context.Background(), "", logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultBaseURL, cfg.Backend.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Backend.Timeout.Std())
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL.Std())
	assert.Equal(t, DefaultBufferSize, cfg.Monitor.BufferSize)
	assert.Equal(t, DefaultNATSSubject, cfg.Monitor.NATSSubject)
	require.NotNil(t, cfg.Logging)
}

func TestLoadJSONFile(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "cortex.json", `{
		"listen_addr": ":9000",
		"backend": {"base_url": "http://ids:8000/", "timeout": "5s"},
		"cors": {"allowed_origins": ["http://localhost:3000"]},
		"session_ttl": "10m",
		"monitor": {"buffer_size": 50}
	}`)

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "http://ids:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL.Std())
	assert.Equal(t, 50, cfg.Monitor.BufferSize)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "cortex.yaml", `
listen_addr: ":9100"
backend:
  base_url: https://ids.example.com
  timeout: 2s
monitor:
  nats_url: nats://127.0.0.1:4222
  nats_subject: ids.threats
metrics:
  enabled: true
logging:
  level: debug
`)

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.ListenAddr)
	assert.Equal(t, "https://ids.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Monitor.NATSURL)
	assert.Equal(t, "ids.threats", cfg.Monitor.NATSSubject)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "cortex.toml", "listen_addr = ':1'")

	_, err := Load(context.Background(), path, nil)
	require.ErrorIs(t, err, errUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackendEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_API_BASE_URL", "http://dashboard-backend:8000")

	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://dashboard-backend:8000", cfg.Backend.BaseURL)

	t.Setenv("CORTEX_BACKEND_BASE_URL", "http://override:8000")

	cfg, err = Load(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://override:8000", cfg.Backend.BaseURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CORTEX_LISTEN_ADDR", ":7000")
	t.Setenv("CORTEX_BACKEND_TIMEOUT", "3s")
	t.Setenv("CORTEX_CORS_ALLOWED_ORIGINS", "http://a, http://b")
	t.Setenv("CORTEX_MONITOR_BUFFER_SIZE", "25")
	t.Setenv("CORTEX_METRICS_ENABLED", "true")
	t.Setenv("CORTEX_LOGGING_LEVEL", "warn")

	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 25, cfg.Monitor.BufferSize)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromConfigJSONVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CORTEX_CONFIG_JSON", `{"listen_addr": ":6000", "monitor": {"buffer_size": 10}}`)

	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.Monitor.BufferSize)
}

func TestEnvLoaderRejectsNonPointer(t *testing.T) {
	t.Setenv("CORTEX_CONFIG_JSON", "")

	loader := NewEnvConfigLoader(nil, EnvPrefix)

	require.ErrorIs(t, loader.Load(context.Background(), "", ConsoleConfig{}), ErrDstMustBeNonNilPointer)

	s := "x"
	require.ErrorIs(t, loader.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)
}

func TestInvalidConfigSource(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_SOURCE", "kv")

	_, err := Load(context.Background(), "", nil)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConsoleConfig)
		want   error
	}{
		{"bad scheme", func(c *ConsoleConfig) { c.Backend.BaseURL = "ftp://x" }, errInvalidBaseURL},
		{"no listen addr", func(c *ConsoleConfig) { c.ListenAddr = "" }, errMissingListenAddr},
		{"negative buffer", func(c *ConsoleConfig) { c.Monitor.BufferSize = -1 }, errInvalidBufferSize},
		{"negative timeout", func(c *ConsoleConfig) { c.Backend.Timeout = -1 }, errInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())

			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}
