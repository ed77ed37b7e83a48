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

package models

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySchema       = errors.New("schema has no columns")
	ErrDuplicateColumn   = errors.New("duplicate column name")
	ErrReservedColumn    = errors.New("column name is reserved")
	ErrUnknownColumnKind = errors.New("unknown column type")
	ErrUnnamedColumn     = errors.New("column has no name")
)

// IDField is the key that carries the record identifier in a normalized
// record. No schema column may use it.
const IDField = "id"

// ColumnKind is the declared type of a schema column.
type ColumnKind string

const (
	KindInteger ColumnKind = "integer"
	KindFloat   ColumnKind = "float"
	KindString  ColumnKind = "string"
)

// Valid reports whether k is one of the kinds the backend declares.
func (k ColumnKind) Valid() bool {
	switch k {
	case KindInteger, KindFloat, KindString:
		return true
	default:
		return false
	}
}

// Numeric reports whether values of this kind are coerced to numbers.
func (k ColumnKind) Numeric() bool {
	return k == KindInteger || k == KindFloat
}

// Default is the value proposed for a missing cell of this kind.
func (k ColumnKind) Default() Value {
	if k.Numeric() {
		return Number(0)
	}

	return String("")
}

// ColumnDescriptor describes one feature of a network-flow record as
// declared by the backend at /api/schema/columns.
type ColumnDescriptor struct {
	Name        string     `json:"name"`
	Kind        ColumnKind `json:"type"`
	Description string     `json:"description"`
	Required    bool       `json:"required"`
	Example     string     `json:"example"`
}

// Schema is the ordered column list. Order matters for rendering and for
// the order in which missing fields are reported.
type Schema []ColumnDescriptor

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i := range s {
		names[i] = s[i].Name
	}

	return names
}

// Lookup finds a column by name.
func (s Schema) Lookup(name string) (ColumnDescriptor, bool) {
	for i := range s {
		if s[i].Name == name {
			return s[i], true
		}
	}

	return ColumnDescriptor{}, false
}

// Required returns the required columns in schema order.
func (s Schema) Required() []ColumnDescriptor {
	var out []ColumnDescriptor

	for i := range s {
		if s[i].Required {
			out = append(out, s[i])
		}
	}

	return out
}

// Validate checks the structural rules a schema must satisfy before any
// record can be normalized against it.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return ErrEmptySchema
	}

	seen := make(map[string]struct{}, len(s))

	for i := range s {
		col := s[i]

		switch {
		case col.Name == "":
			return fmt.Errorf("%w: index %d", ErrUnnamedColumn, i)
		case col.Name == IDField:
			return fmt.Errorf("%w: %q", ErrReservedColumn, col.Name)
		case !col.Kind.Valid():
			return fmt.Errorf("%w: %q for column %s", ErrUnknownColumnKind, col.Kind, col.Name)
		}

		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, col.Name)
		}

		seen[col.Name] = struct{}{}
	}

	return nil
}
