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

// Package config loads the console service configuration from a JSON or
// YAML file, or from CORTEX_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/models"
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errMissingListenAddr   = errors.New("listen_addr is required")
	errMissingBaseURL      = errors.New("backend.base_url is required")
	errInvalidBaseURL      = errors.New("backend.base_url must start with http:// or https://")
	errInvalidBufferSize   = errors.New("monitor.buffer_size must be positive")
	errInvalidTimeout      = errors.New("backend.timeout must be positive")
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// EnvPrefix is prepended to every variable read by the env loader.
	EnvPrefix = "CORTEX_"

	DefaultListenAddr  = ":8090"
	DefaultBaseURL     = "http://localhost:8000"
	DefaultTimeout     = 30 * time.Second
	DefaultSessionTTL  = 30 * time.Minute
	DefaultBufferSize  = 200
	DefaultNATSSubject = "cortex.events.threats"
)

// ConfigLoader fills dst from a source identified by path.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configs that can check themselves.
type Validator interface {
	Validate() error
}

// BackendConfig locates the detection backend.
type BackendConfig struct {
	BaseURL string          `json:"base_url" yaml:"base_url"`
	Timeout models.Duration `json:"timeout" yaml:"timeout"`
}

type MonitorConfig struct {
	BufferSize  int    `json:"buffer_size" yaml:"buffer_size"`
	GeoIPDB     string `json:"geoip_db,omitempty" yaml:"geoip_db,omitempty"`
	NATSURL     string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	NATSSubject string `json:"nats_subject,omitempty" yaml:"nats_subject,omitempty"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ConsoleConfig is the configuration of `cortex serve` and of the CLI
// commands that talk to the backend.
type ConsoleConfig struct {
	ListenAddr string            `json:"listen_addr" yaml:"listen_addr"`
	Backend    BackendConfig     `json:"backend" yaml:"backend"`
	CORS       models.CORSConfig `json:"cors" yaml:"cors"`
	SessionTTL models.Duration   `json:"session_ttl" yaml:"session_ttl"`
	Monitor    MonitorConfig     `json:"monitor" yaml:"monitor"`
	Logging    *logger.Config    `json:"logging,omitempty" yaml:"logging,omitempty"`
	Metrics    MetricsConfig     `json:"metrics" yaml:"metrics"`
}

// Default returns a configuration with every default applied.
func Default() *ConsoleConfig {
	cfg := &ConsoleConfig{}
	cfg.ApplyDefaults()

	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *ConsoleConfig) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}

	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBaseURL
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = models.Duration(DefaultTimeout)
	}

	if c.SessionTTL == 0 {
		c.SessionTTL = models.Duration(DefaultSessionTTL)
	}

	if c.Monitor.BufferSize == 0 {
		c.Monitor.BufferSize = DefaultBufferSize
	}

	if c.Monitor.NATSSubject == "" {
		c.Monitor.NATSSubject = DefaultNATSSubject
	}

	if c.Logging == nil || *c.Logging == (logger.Config{}) {
		c.Logging = logger.DefaultConfig()
	}
}

// Validate implements Validator.
func (c *ConsoleConfig) Validate() error {
	switch {
	case c.ListenAddr == "":
		return errMissingListenAddr
	case c.Backend.BaseURL == "":
		return errMissingBaseURL
	case !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://"):
		return fmt.Errorf("%w: %q", errInvalidBaseURL, c.Backend.BaseURL)
	case c.Backend.Timeout <= 0:
		return errInvalidTimeout
	case c.Monitor.BufferSize <= 0:
		return errInvalidBufferSize
	}

	return nil
}

// applyEnvOverrides lets the backend address be set without a config
// file. CORTEX_BACKEND_BASE_URL wins over NEXT_PUBLIC_API_BASE_URL,
// which the web dashboard deployment already exports.
func (c *ConsoleConfig) applyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "BACKEND_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	} else if v := os.Getenv("NEXT_PUBLIC_API_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}

	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// Load reads the configuration. CONFIG_SOURCE=env selects the
// environment loader; otherwise path is read as a file, and an empty
// path yields the defaults.
func Load(ctx context.Context, path string, log logger.Logger) (*ConsoleConfig, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	cfg := &ConsoleConfig{}

	loader, err := selectLoader(path, log)
	if err != nil {
		return nil, err
	}

	if loader != nil {
		if err := loader.Load(ctx, path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	cfg.applyEnvOverrides()

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Debug().
		Str("listen_addr", cfg.ListenAddr).
		Str("backend", cfg.Backend.BaseURL).
		Msg("Configuration loaded")

	return cfg, nil
}

func selectLoader(path string, log logger.Logger) (ConfigLoader, error) {
	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	switch source {
	case configSourceEnv:
		return NewEnvConfigLoader(log, EnvPrefix), nil
	case configSourceFile, "":
		if path == "" {
			return nil, nil
		}

		return &FileConfigLoader{logger: log}, nil
	default:
		return nil, fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}
}
