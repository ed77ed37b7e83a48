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

package logger

import (
	"os"
	"strings"
)

// envPrefixes are tried in order, so CORTEX_LOG_LEVEL wins over LOG_LEVEL.
var envPrefixes = []string{"CORTEX_", ""} //nolint:gochecknoglobals // read-only lookup order

// DefaultConfig is the console's logging setup: info level JSON on stdout
// unless CORTEX_LOG_* or LOG_* variables say otherwise.
func DefaultConfig() *Config {
	return &Config{
		Level:      lookupEnv("LOG_LEVEL", "info"),
		Debug:      parseBool(lookupEnv("DEBUG", "")),
		Output:     lookupEnv("LOG_OUTPUT", "stdout"),
		TimeFormat: lookupEnv("LOG_TIME_FORMAT", ""),
	}
}

// TerminalConfig keeps stdout free for command output and the TUI: only
// warnings and errors, written to stderr.
func TerminalConfig() *Config {
	cfg := DefaultConfig()
	cfg.Output = "stderr"

	if !cfg.Debug && lookupEnv("LOG_LEVEL", "") == "" {
		cfg.Level = "warn"
	}

	return cfg
}

func lookupEnv(key, defaultValue string) string {
	for _, prefix := range envPrefixes {
		if value := os.Getenv(prefix + key); value != "" {
			return value
		}
	}

	return defaultValue
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
