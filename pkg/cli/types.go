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

package cli

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/cortex/pkg/flows"
	"github.com/carverauto/cortex/pkg/models"
)

// CmdConfig holds parsed command-line configuration.
type CmdConfig struct {
	Help       bool
	SubCmd     string
	ConfigFile string
	ListenAddr string
	BaseURL    string
	Model      string
	File       string
	Out        string
}

type styles struct {
	title, label, help, hint, success, error, cell, cursor, header, app lipgloss.Style
}

type entryMode int

const (
	modeRecords entryMode = iota
	modeEditing
	modeCorrections
	modeEditingCorrection
	modeAnalyzing
)

// entryModel is the bubbletea model of the manual entry form. Cached
// fields are refreshed from the workflow in Update only, never while an
// analysis command is running.
type entryModel struct {
	ctx      context.Context
	workflow *flows.Workflow
	schema   models.Schema
	models   []string

	mode     entryMode
	row, col int
	input    textinput.Model

	records  []models.FlowRecord
	pending  []models.MissingFieldEntry
	response *models.AnalyzeResponse
	state    flows.State

	message string
	err     error

	copy    func(string) error
	canCopy bool
	width   int
	styles  styles
}

type analyzeDoneMsg struct {
	outcome flows.Outcome
	err     error
}
