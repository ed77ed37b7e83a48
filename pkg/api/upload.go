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

package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/carverauto/cortex/pkg/metrics"
	"github.com/carverauto/cortex/pkg/models"
)

const (
	multipartMemory = 32 << 20
	utf8BOM         = "\ufeff"
)

// handleUpload proxies a CSV file to the backend analyzer after checking
// its name and header locally.
func (s *APIServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	res, err := s.upload(w, r)
	if err != nil {
		s.metrics.RecordUpload(metrics.ResultError)
		writeError(w, s.logger, err)

		return
	}

	s.metrics.RecordUpload(metrics.ResultOK)
	s.hub.RecordCSV(res)

	s.logger.Info().
		Str("filename", res.Filename).
		Str("model", res.ModelUsed).
		Int("rows", res.RowsAnalyzed).
		Int("attacks", res.AttacksDetected).
		Msg("CSV analysis completed")

	writeJSON(w, s.logger, http.StatusOK, res)
}

func (s *APIServer) upload(w http.ResponseWriter, r *http.Request) (*models.CSVAnalysisResult, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("%w: %w", errMissingFile, err)
	}

	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errMissingFile
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return nil, errInvalidFileType
	}

	ctx := r.Context()

	schema, err := s.schema.Schema(ctx)
	if err != nil {
		return nil, err
	}

	columns, err := readHeader(file)
	if err != nil {
		return nil, err
	}

	if missing := missingColumns(schema, columns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", errMissingColumns, strings.Join(missing, ", "))
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	model := r.FormValue("model")
	if model == "" {
		model = s.defaultModel(ctx)
	}

	if model == "" {
		return nil, errModelRequired
	}

	return s.backend.AnalyzeCSV(ctx, header.Filename, file, model)
}

func readHeader(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	row, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errUnreadableCSV
		}

		return nil, fmt.Errorf("%w: %w", errUnreadableCSV, err)
	}

	if len(row) > 0 {
		row[0] = strings.TrimPrefix(row[0], utf8BOM)
	}

	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	return row, nil
}

// missingColumns lists the required schema columns absent from header,
// in schema order.
func missingColumns(schema models.Schema, header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	var missing []string

	for _, c := range schema.Required() {
		if _, ok := present[c.Name]; !ok {
			missing = append(missing, c.Name)
		}
	}

	return missing
}
