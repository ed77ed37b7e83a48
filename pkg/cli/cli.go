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

// Package cli implements the cortex command-line tool.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/cortex/pkg/backend"
	"github.com/carverauto/cortex/pkg/config"
	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/version"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

const appPadding = 2

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		cell: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)).
			Padding(0, 1),
		cursor: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)).
			Bold(true).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true).
			Padding(0, 1),
		app: lipgloss.NewStyle().
			Padding(1, appPadding).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(draculaCyan)).
			Foreground(lipgloss.Color(draculaForeground)),
	}
}

// SubcommandHandler parses the flags of one subcommand into cfg.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

type ServeHandler struct{}

func (ServeHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configFile, baseURL := backendFlags(fs)
	listen := fs.String("listen", "", "listen address (overrides config)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing serve flags: %w", err)
	}

	cfg.ConfigFile = *configFile
	cfg.BaseURL = *baseURL
	cfg.ListenAddr = *listen

	return nil
}

type SchemaHandler struct{}

func (SchemaHandler) Parse(args []string, cfg *CmdConfig) error {
	return parseBackendOnly("schema", args, cfg)
}

type ModelsHandler struct{}

func (ModelsHandler) Parse(args []string, cfg *CmdConfig) error {
	return parseBackendOnly("models", args, cfg)
}

type AnalyzeCSVHandler struct{}

func (AnalyzeCSVHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("analyze-csv", flag.ContinueOnError)
	configFile, baseURL := backendFlags(fs)
	file := fs.String("file", "", "CSV file to analyze")
	model := fs.String("model", "", "model to use")
	out := fs.String("out", "", "where to write the annotated CSV")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing analyze-csv flags: %w", err)
	}

	if *file == "" {
		return errFileRequired
	}

	cfg.ConfigFile = *configFile
	cfg.BaseURL = *baseURL
	cfg.File = *file
	cfg.Model = *model
	cfg.Out = *out

	return nil
}

type EntryHandler struct{}

func (EntryHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("entry", flag.ContinueOnError)
	configFile, baseURL := backendFlags(fs)
	model := fs.String("model", "", "model to use")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing entry flags: %w", err)
	}

	cfg.ConfigFile = *configFile
	cfg.BaseURL = *baseURL
	cfg.Model = *model

	return nil
}

func backendFlags(fs *flag.FlagSet) (configFile, baseURL *string) {
	fs.SetOutput(io.Discard)

	configFile = fs.String("config", "", "path to console config file")
	baseURL = fs.String("base-url", "", "detection backend address")

	return configFile, baseURL
}

func parseBackendOnly(name string, args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configFile, baseURL := backendFlags(fs)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing %s flags: %w", name, err)
	}

	cfg.ConfigFile = *configFile
	cfg.BaseURL = *baseURL

	return nil
}

// ParseArgs parses the command line without the program name.
func ParseArgs(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{}

	if len(args) == 0 {
		cfg.Help = true
		return cfg, nil
	}

	cfg.SubCmd = args[0]

	switch cfg.SubCmd {
	case "help", "-help", "--help", "-h":
		cfg.Help = true
		return cfg, nil
	case "version":
		return cfg, nil
	}

	subcommands := map[string]SubcommandHandler{
		"serve":       ServeHandler{},
		"schema":      SchemaHandler{},
		"models":      ModelsHandler{},
		"analyze-csv": AnalyzeCSVHandler{},
		"entry":       EntryHandler{},
	}

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Run executes the parsed subcommand.
func Run(ctx context.Context, cfg *CmdConfig) error {
	switch cfg.SubCmd {
	case "serve":
		return RunServe(ctx, cfg)
	case "schema":
		return RunSchema(ctx, cfg)
	case "models":
		return RunModels(ctx, cfg)
	case "analyze-csv":
		return RunAnalyzeCSV(ctx, cfg)
	case "entry":
		return RunEntry(ctx, cfg)
	case "version":
		fmt.Println("cortex " + version.GetFullVersion())
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}
}

// loadConfig reads the console config and applies command-line
// overrides.
func loadConfig(ctx context.Context, cfg *CmdConfig, log logger.Logger) (*config.ConsoleConfig, error) {
	consoleCfg, err := config.Load(ctx, cfg.ConfigFile, log)
	if err != nil {
		return nil, err
	}

	if cfg.BaseURL != "" {
		consoleCfg.Backend.BaseURL = cfg.BaseURL
	}

	if cfg.ListenAddr != "" {
		consoleCfg.ListenAddr = cfg.ListenAddr
	}

	if err := consoleCfg.Validate(); err != nil {
		return nil, err
	}

	return consoleCfg, nil
}

// newClient builds a backend client for the one-shot commands, which
// log to stderr only.
func newClient(ctx context.Context, cfg *CmdConfig) (*backend.HTTPClient, error) {
	log, err := logger.New(logger.TerminalConfig())
	if err != nil {
		return nil, err
	}

	consoleCfg, err := loadConfig(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return backend.NewHTTPClient(backend.HTTPClientConfig{
		BaseURL: consoleCfg.Backend.BaseURL,
		Timeout: consoleCfg.Backend.Timeout.Std(),
		Logger:  log.WithComponent("backend"),
	})
}
