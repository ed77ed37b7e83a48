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
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/carverauto/cortex/pkg/backend"
)

const (
	defaultFilePerms = 0600
	previewRows      = 5
)

func newTable(s styles, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPurple))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}

			return s.cell
		}).
		Headers(headers...)
}

// RunSchema prints the backend feature schema.
func RunSchema(ctx context.Context, cfg *CmdConfig) error {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}

	return printSchema(ctx, client, os.Stdout)
}

func printSchema(ctx context.Context, client backend.Client, w io.Writer) error {
	schema, err := client.Columns(ctx)
	if err != nil {
		return err
	}

	s := newStyles()
	t := newTable(s, "COLUMN", "TYPE", "REQUIRED", "EXAMPLE", "DESCRIPTION")

	for _, c := range schema {
		required := ""
		if c.Required {
			required = "yes"
		}

		t.Row(c.Name, string(c.Kind), required, c.Example, c.Description)
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, s.help.Render(fmt.Sprintf("%d columns, %d required", len(schema), len(schema.Required()))))

	return nil
}

// RunModels lists the detection models. The first one is the default.
func RunModels(ctx context.Context, cfg *CmdConfig) error {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}

	return printModels(ctx, client, os.Stdout)
}

func printModels(ctx context.Context, client backend.Client, w io.Writer) error {
	list, err := client.Models(ctx)
	if err != nil {
		return err
	}

	s := newStyles()

	for i, m := range list {
		if i == 0 {
			fmt.Fprintln(w, s.success.Render(m)+" "+s.help.Render("(default)"))
			continue
		}

		fmt.Fprintln(w, m)
	}

	return nil
}

// RunAnalyzeCSV uploads cfg.File and prints the summary.
func RunAnalyzeCSV(ctx context.Context, cfg *CmdConfig) error {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}

	return analyzeCSV(ctx, client, cfg, os.Stdout)
}

func analyzeCSV(ctx context.Context, client backend.Client, cfg *CmdConfig, w io.Writer) error {
	if cfg.File == "" {
		return errFileRequired
	}

	model := cfg.Model
	if model == "" {
		list, err := client.Models(ctx)
		if err != nil {
			return err
		}

		if len(list) == 0 {
			return errNoModel
		}

		model = list[0]
	}

	f, err := os.Open(cfg.File)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := client.AnalyzeCSV(ctx, filepath.Base(cfg.File), f, model)
	if err != nil {
		return err
	}

	s := newStyles()

	fmt.Fprintln(w, s.title.Render("Analysis of "+res.Filename))
	fmt.Fprintf(w, "%s %s\n", s.label.Render("Model:"), res.ModelUsed)
	fmt.Fprintf(w, "%s %d\n", s.label.Render("Rows analyzed:"), res.RowsAnalyzed)
	fmt.Fprintf(w, "%s %d\n", s.label.Render("Attacks detected:"), res.AttacksDetected)
	fmt.Fprintf(w, "%s %.2fs\n", s.label.Render("Analysis time:"), res.AnalysisTime)

	if len(res.AttackTypes) > 0 {
		t := newTable(s, "TYPE", "COUNT", "CONFIDENCE")
		for _, at := range res.AttackTypes {
			t.Row(at.Type, strconv.Itoa(at.Count), formatPercent(at.Confidence))
		}

		fmt.Fprintln(w, t.Render())
	}

	data, err := res.DecodedCSV()
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	if preview, err := previewCSV(data, previewRows); err == nil && preview != nil {
		fmt.Fprintln(w, s.label.Render("Preview:"))
		fmt.Fprintln(w, preview.Render())
	}

	if cfg.Out != "" {
		if err := os.WriteFile(cfg.Out, data, defaultFilePerms); err != nil {
			return fmt.Errorf("failed to write %s: %w", cfg.Out, err)
		}

		fmt.Fprintln(w, s.success.Render("Annotated CSV written to "+cfg.Out))
	}

	return nil
}

// previewCSV renders the header and the first n data rows.
func previewCSV(data []byte, n int) (*table.Table, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	t := newTable(newStyles(), header...)

	for i := 0; i < n; i++ {
		row, err := reader.Read()
		if err != nil {
			break
		}

		t.Row(row...)
	}

	return t, nil
}

func formatPercent(f float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(f*100, 'f', 1, 64), ".0") + "%"
}
