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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/carverauto/cortex/pkg/backend"
	"github.com/carverauto/cortex/pkg/flows"
	"github.com/carverauto/cortex/pkg/models"
)

const (
	visibleColumns = 5
	inputWidth     = 40
)

// RunEntry launches the terminal manual entry form.
func RunEntry(ctx context.Context, cfg *CmdConfig) error {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}

	schema, err := client.Columns(ctx)
	if err != nil {
		return err
	}

	list, err := client.Models(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not list models: %v\n", err)
	}

	model := cfg.Model
	if model == "" && len(list) > 0 {
		model = list[0]
	}

	wf := flows.NewWorkflow(schema, nil, client, flows.WithModel(model))

	var copyFn func(string) error
	if !clipboard.Unsupported {
		copyFn = clipboard.WriteAll
	}

	p := tea.NewProgram(newEntryModel(ctx, wf, list, copyFn), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

// newEntryModel builds the entry screen. A nil copyFn disables copying.
func newEntryModel(ctx context.Context, wf *flows.Workflow, available []string, copyFn func(string) error) *entryModel {
	ti := textinput.New()
	ti.Width = inputWidth
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaForeground))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment))

	m := &entryModel{
		ctx:      ctx,
		workflow: wf,
		schema:   wf.Schema(),
		models:   available,
		input:    ti,
		copy:     copyFn,
		canCopy:  copyFn != nil,
		styles:   newStyles(),
	}
	m.refresh()

	return m
}

func (*entryModel) Init() tea.Cmd {
	return nil
}

// refresh copies the workflow state into the model for View.
func (m *entryModel) refresh() {
	store := m.workflow.Store()

	m.records = store.Records()
	m.pending = store.Pending()
	m.response = m.workflow.Response()
	m.state = m.workflow.State()

	if m.row >= m.rowCount() {
		m.row = max(m.rowCount()-1, 0)
	}
}

func (m *entryModel) rowCount() int {
	if m.mode == modeCorrections || m.mode == modeEditingCorrection {
		return len(m.pending)
	}

	return len(m.records)
}

func (m *entryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case analyzeDoneMsg:
		return m.handleAnalyzeDone(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *entryModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.mode {
	case modeAnalyzing:
		return m, nil
	case modeEditing, modeEditingCorrection:
		return m.handleEditKey(msg)
	case modeCorrections:
		return m.handleCorrectionKey(msg)
	default:
		return m.handleRecordKey(msg)
	}
}

func (m *entryModel) handleRecordKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.row = max(m.row-1, 0)
	case "down", "j":
		m.row = min(m.row+1, len(m.records)-1)
	case "left", "h", "shift+tab":
		m.col = max(m.col-1, 0)
	case "right", "l", "tab":
		m.col = min(m.col+1, len(m.schema)-1)
	case "enter":
		return m.startEdit(m.currentCell().Text())
	case "n":
		m.workflow.Store().Create()
		m.refresh()
		m.row = len(m.records) - 1
	case "d":
		m.deleteRow()
	case "m":
		m.cycleModel()
	case "c":
		m.copyResults()
	case "a":
		return m.startAnalyze(func(ctx context.Context) (flows.Outcome, error) {
			return m.workflow.Analyze(ctx)
		})
	}

	return m, nil
}

func (m *entryModel) handleCorrectionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch msg.String() {
	case "up", "k":
		m.row = max(m.row-1, 0)
	case "down", "j":
		m.row = min(m.row+1, len(m.pending)-1)
	case "enter":
		if len(m.pending) == 0 {
			return m, nil
		}

		return m.startEdit(m.pending[m.row].Value.Text())
	case "y":
		return m.startAnalyze(func(ctx context.Context) (flows.Outcome, error) {
			return m.workflow.Confirm(ctx)
		})
	case "x", "esc":
		if err := m.workflow.Cancel(); err != nil {
			m.err = err
			return m, nil
		}

		m.mode = modeRecords
		m.row = 0
		m.message = "Corrections cancelled"
		m.refresh()
	}

	return m, nil
}

func (m *entryModel) startEdit(current string) (tea.Model, tea.Cmd) {
	if m.mode == modeCorrections {
		m.mode = modeEditingCorrection
	} else {
		m.mode = modeEditing
	}

	m.input.SetValue(current)
	m.input.CursorEnd()

	return m, m.input.Focus()
}

func (m *entryModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // Default case forwards every other key to the input
	switch msg.Type {
	case tea.KeyEsc:
		m.finishEdit()
		return m, nil
	case tea.KeyEnter:
		m.commitEdit(m.input.Value())
		m.finishEdit()

		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		return m, cmd
	}
}

func (m *entryModel) finishEdit() {
	m.input.Blur()

	if m.mode == modeEditingCorrection {
		m.mode = modeCorrections
	} else {
		m.mode = modeRecords
	}
}

// commitEdit writes the typed text. An empty cell is unset.
func (m *entryModel) commitEdit(text string) {
	value := models.String(text)
	if text == "" {
		value = models.Absent()
	}

	if m.mode == modeEditingCorrection {
		if err := m.workflow.UpdateCorrection(m.row, value); err != nil {
			m.err = err
		}

		m.refresh()

		return
	}

	if len(m.records) == 0 || len(m.schema) == 0 {
		return
	}

	id := m.records[m.row].ID
	if err := m.workflow.Store().UpdateField(id, m.schema[m.col].Name, value); err != nil {
		m.err = err
	}

	m.refresh()
}

func (m *entryModel) currentCell() models.Value {
	if len(m.records) == 0 || len(m.schema) == 0 {
		return models.Absent()
	}

	return m.records[m.row].Get(m.schema[m.col].Name)
}

func (m *entryModel) deleteRow() {
	if len(m.records) == 0 {
		return
	}

	if err := m.workflow.Store().Delete(m.records[m.row].ID); err != nil {
		m.err = err
	}

	m.refresh()
}

func (m *entryModel) cycleModel() {
	if len(m.models) == 0 {
		return
	}

	next := m.models[0]

	for i, name := range m.models {
		if name == m.workflow.Model() {
			next = m.models[(i+1)%len(m.models)]
			break
		}
	}

	m.workflow.SetModel(next)
	m.message = "Model: " + next
}

func (m *entryModel) copyResults() {
	if m.response == nil {
		m.err = errNothingToCopy
		return
	}

	if !m.canCopy {
		m.err = errClipboard
		return
	}

	data, err := json.MarshalIndent(m.response, "", "  ")
	if err != nil {
		m.err = err
		return
	}

	if err := m.copy(string(data)); err != nil {
		m.message = "Failed to copy to clipboard"
		return
	}

	m.message = "Results copied to clipboard!"
}

// startAnalyze runs fn off the event loop. Until its analyzeDoneMsg
// arrives the model does not touch the workflow.
func (m *entryModel) startAnalyze(fn func(context.Context) (flows.Outcome, error)) (tea.Model, tea.Cmd) {
	m.mode = modeAnalyzing
	m.message = "Analyzing..."
	ctx := m.ctx

	return m, func() tea.Msg {
		out, err := fn(ctx)
		return analyzeDoneMsg{outcome: out, err: err}
	}
}

func (m *entryModel) handleAnalyzeDone(msg analyzeDoneMsg) (tea.Model, tea.Cmd) {
	m.mode = modeRecords
	m.row = 0
	m.message = ""
	m.err = nil

	switch msg.outcome.State {
	case flows.StateSucceeded:
		m.message = fmt.Sprintf("Analysis complete: %d results", len(msg.outcome.Response.Results))
	case flows.StateBlockedAllEmpty:
		m.message = "Please enter at least one value before analyzing."
		_ = m.workflow.Acknowledge()
	case flows.StateBlockedMissingRequired:
		m.mode = modeCorrections
		m.message = "Some required fields are empty. Review the proposed values."

		if !errors.Is(msg.err, flows.ErrMissingRequired) {
			m.err = msg.err
		}
	default:
		m.err = msg.err
	}

	m.refresh()

	return m, nil
}

func (m *entryModel) View() string {
	var content strings.Builder

	s := m.styles

	content.WriteString(s.title.Render("Cortex IDS: Manual Flow Entry"))
	content.WriteString("  " + s.help.Render("model: "+m.modelName()) + "\n\n")

	switch m.mode {
	case modeCorrections, modeEditingCorrection:
		content.WriteString(m.renderCorrections())
	default:
		content.WriteString(m.renderRecords())
	}

	if m.mode == modeEditing || m.mode == modeEditingCorrection {
		content.WriteString("\n" + s.label.Render("Value:") + "\n" + m.input.View() + "\n")
	}

	if m.response != nil && m.mode == modeRecords {
		content.WriteString("\n" + m.renderResults())
	}

	if m.message != "" {
		content.WriteString("\n" + s.hint.Render(m.message))
	}

	if m.err != nil {
		content.WriteString("\n" + s.error.Render(fmt.Sprintf("Error: %v", errorText(m.err))))
	}

	content.WriteString("\n\n" + s.help.Render(m.helpLine()))

	return s.app.Align(lipgloss.Left).Render(content.String())
}

func (m *entryModel) modelName() string {
	if m.mode == modeAnalyzing {
		return "..."
	}

	if name := m.workflow.Model(); name != "" {
		return name
	}

	return "none"
}

func (m *entryModel) helpLine() string {
	switch m.mode {
	case modeEditing, modeEditingCorrection:
		return "Enter → save | Esc → discard"
	case modeCorrections:
		return "↑/↓ → select | Enter → edit value | y → confirm | x → cancel"
	case modeAnalyzing:
		return "Waiting for the backend..."
	default:
		help := "arrows → move | Enter → edit | n → new flow | d → delete | a → analyze | m → model | q → quit"
		if m.response != nil && m.canCopy {
			help += " | c → copy results"
		}

		return help
	}
}

// columnWindow is the slice of schema columns shown around the cursor.
func (m *entryModel) columnWindow() (int, int) {
	start := 0
	if m.col >= visibleColumns {
		start = m.col - visibleColumns + 1
	}

	end := min(start+visibleColumns, len(m.schema))

	return start, end
}

func (m *entryModel) renderRecords() string {
	start, end := m.columnWindow()

	headers := []string{"#"}
	for _, c := range m.schema[start:end] {
		name := c.Name
		if c.Required {
			name += "*"
		}

		headers = append(headers, name)
	}

	s := m.styles
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPurple))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case row == m.row && col == m.col-start+1 && m.mode != modeAnalyzing:
				return s.cursor
			default:
				return s.cell
			}
		})

	for _, rec := range m.records {
		cells := []string{strconv.FormatInt(rec.ID, 10)}
		for _, c := range m.schema[start:end] {
			cells = append(cells, rec.Get(c.Name).Text())
		}

		t.Row(cells...)
	}

	return t.Render() + "\n" + s.help.Render(fmt.Sprintf("column %d of %d", m.col+1, len(m.schema)))
}

func (m *entryModel) renderCorrections() string {
	s := m.styles
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(draculaOrange))).
		Headers("FLOW", "COLUMN", "TYPE", "VALUE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case row == m.row:
				return s.cursor
			default:
				return s.cell
			}
		})

	for _, e := range m.pending {
		t.Row(correctionRow(e)...)
	}

	return t.Render()
}

// correctionRow labels an entry by record id so it matches the # column.
func correctionRow(e models.MissingFieldEntry) []string {
	return []string{strconv.FormatInt(e.FlowID, 10), e.Column, string(e.Kind), e.Value.Text()}
}

func (m *entryModel) renderResults() string {
	s := m.styles
	t := newTable(s, "FLOW", "PREDICTION", "CONFIDENCE", "RISK", "THREAT")

	for _, r := range m.response.Results {
		threat := "no"
		if r.IsThreat {
			threat = "YES"
		}

		t.Row(r.FlowID, r.Prediction, formatPercent(r.Confidence), r.RiskLevel, threat)
	}

	return s.label.Render(fmt.Sprintf("Results (%s, %.2fs):", m.response.ModelUsed, m.response.AnalysisTime)) + "\n" + t.Render()
}

func errorText(err error) string {
	var serr *backend.SubmissionError
	if errors.As(err, &serr) {
		return serr.Message()
	}

	return err.Error()
}
