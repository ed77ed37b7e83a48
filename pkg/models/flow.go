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
	"bytes"
	"encoding/json"
)

// FlowRecord is one user-editable row of manual entry. Fields is sparse:
// a column the user never touched has no key.
type FlowRecord struct {
	ID     int64            `json:"id"`
	Fields map[string]Value `json:"fields"`
}

// NewFlowRecord returns a blank record with the given id.
func NewFlowRecord(id int64) FlowRecord {
	return FlowRecord{ID: id, Fields: make(map[string]Value)}
}

// Get returns the raw value of a column, Absent when unset.
func (r FlowRecord) Get(column string) Value {
	if r.Fields == nil {
		return Absent()
	}

	return r.Fields[column]
}

// Clone copies the record so the copy can be handed out without sharing
// the field map.
func (r FlowRecord) Clone() FlowRecord {
	out := FlowRecord{ID: r.ID, Fields: make(map[string]Value, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}

	return out
}

// NormalizedField is one typed cell of a submission-ready record. Value
// holds an int64, a float64 or a string according to Kind.
type NormalizedField struct {
	Name  string
	Kind  ColumnKind
	Value any
}

// NormalizedRecord is a complete, typed record in schema order. It
// serializes as a flat JSON object: {"id": "...", "<column>": value, ...}.
type NormalizedRecord struct {
	ID     string
	Fields []NormalizedField
}

// Get returns the typed value of a column.
func (n NormalizedRecord) Get(name string) (any, bool) {
	if name == IDField {
		return n.ID, true
	}

	for i := range n.Fields {
		if n.Fields[i].Name == name {
			return n.Fields[i].Value, true
		}
	}

	return nil, false
}

// Keys returns the serialized key set, id first.
func (n NormalizedRecord) Keys() []string {
	keys := make([]string, 0, len(n.Fields)+1)
	keys = append(keys, IDField)

	for i := range n.Fields {
		keys = append(keys, n.Fields[i].Name)
	}

	return keys
}

// StringField returns a string column value, or "" when the column is
// missing or not a string.
func (n NormalizedRecord) StringField(name string) string {
	v, ok := n.Get(name)
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}

func (n NormalizedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	id, err := json.Marshal(n.ID)
	if err != nil {
		return nil, err
	}

	buf.WriteString(`"` + IDField + `":`)
	buf.Write(id)

	for i := range n.Fields {
		key, err := json.Marshal(n.Fields[i].Name)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(n.Fields[i].Value)
		if err != nil {
			return nil, err
		}

		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MissingFieldEntry is one correction task: a required cell found empty,
// with the value proposed for it. FlowID pins the entry to the record
// that was at FlowIndex when validation ran.
type MissingFieldEntry struct {
	FlowIndex int        `json:"flow_index"`
	FlowID    int64      `json:"flow_id"`
	Column    string     `json:"column"`
	Kind      ColumnKind `json:"type"`
	Value     Value      `json:"value"`
}
