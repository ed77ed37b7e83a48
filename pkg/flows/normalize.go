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

// Package flows implements schema-driven manual entry of network flow
// records: the record store, normalization into typed submission-ready
// records, the required-field gate, and the analyze workflow.
//
// Nothing in this package is safe for concurrent use. Callers that share a
// Store or Workflow across goroutines must serialize access themselves.
package flows

import (
	"math"
	"strconv"
	"strings"

	"github.com/carverauto/cortex/pkg/models"
)

// int64 bounds as float64; the upper bound itself is not representable.
const (
	minInt64Float = -9223372036854775808.0
	maxInt64Float = 9223372036854775808.0
)

// Normalize produces the typed record submitted to the backend. Every
// schema column is present in the output with a value of its declared
// kind; columns in record.Fields that the schema does not name are
// dropped. Unparseable or missing numbers become 0.
func Normalize(schema models.Schema, record models.FlowRecord) (models.NormalizedRecord, error) {
	if len(schema) == 0 {
		return models.NormalizedRecord{}, ErrSchemaNotLoaded
	}

	out := models.NormalizedRecord{
		ID:     strconv.FormatInt(record.ID, 10),
		Fields: make([]models.NormalizedField, len(schema)),
	}

	for i := range schema {
		col := schema[i]
		raw := record.Get(col.Name)

		out.Fields[i] = models.NormalizedField{
			Name:  col.Name,
			Kind:  col.Kind,
			Value: coerce(col.Kind, raw),
		}
	}

	return out, nil
}

// NormalizeAll normalizes records in order.
func NormalizeAll(schema models.Schema, records []models.FlowRecord) ([]models.NormalizedRecord, error) {
	if len(schema) == 0 {
		return nil, ErrSchemaNotLoaded
	}

	out := make([]models.NormalizedRecord, 0, len(records))

	for i := range records {
		n, err := Normalize(schema, records[i])
		if err != nil {
			return nil, err
		}

		out = append(out, n)
	}

	return out, nil
}

func coerce(kind models.ColumnKind, raw models.Value) any {
	switch kind {
	case models.KindInteger:
		return coerceInt(raw)
	case models.KindFloat:
		return coerceFloat(raw)
	default:
		return raw.Text()
	}
}

func coerceInt(raw models.Value) int64 {
	if f, ok := raw.Num(); ok {
		return truncate(f)
	}

	s, ok := raw.Str()
	if !ok {
		return 0
	}

	s = strings.TrimSpace(s)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return truncate(f)
}

func coerceFloat(raw models.Value) float64 {
	if f, ok := raw.Num(); ok {
		if !finite(f) {
			return 0
		}

		return f
	}

	s, ok := raw.Str()
	if !ok {
		return 0
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(f) {
		return 0
	}

	return f
}

func truncate(f float64) int64 {
	if !finite(f) || f < minInt64Float || f >= maxInt64Float {
		return 0
	}

	return int64(f)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
