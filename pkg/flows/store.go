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

package flows

import (
	"fmt"

	"github.com/carverauto/cortex/pkg/models"
)

// Store is the ordered, in-memory set of records being edited in one
// session, plus any pending corrections. It always holds at least one
// record, and record ids are never reused for the lifetime of the store.
type Store struct {
	records []models.FlowRecord
	pending []models.MissingFieldEntry
	lastID  int64
}

// NewStore returns a store holding a single blank record.
func NewStore() *Store {
	s := &Store{}
	s.Create()

	return s
}

// Create appends a blank record with a fresh id and returns a copy of it.
func (s *Store) Create() models.FlowRecord {
	rec := models.NewFlowRecord(s.nextID())
	s.records = append(s.records, rec)

	return rec.Clone()
}

// nextID is one greater than both the highest id in use and the highest
// id ever issued, so deleting the newest record never frees its id.
func (s *Store) nextID() int64 {
	highest := s.lastID

	for i := range s.records {
		if s.records[i].ID > highest {
			highest = s.records[i].ID
		}
	}

	s.lastID = highest + 1

	return s.lastID
}

// Delete removes the record with the given id. Deleting the only record
// leaves a single new blank record in its place.
func (s *Store) Delete(id int64) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrFlowNotFound, id)
	}

	s.records = append(s.records[:idx], s.records[idx+1:]...)

	if len(s.records) == 0 {
		s.Create()
	}

	return nil
}

// UpdateField stores raw as the value of column on the record, replacing
// any previous value. No coercion happens here. Writing Absent unsets
// the column.
func (s *Store) UpdateField(id int64, column string, raw models.Value) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrFlowNotFound, id)
	}

	rec := &s.records[idx]
	if rec.Fields == nil {
		rec.Fields = make(map[string]models.Value)
	}

	if raw.IsAbsent() {
		delete(rec.Fields, column)
		return nil
	}

	rec.Fields[column] = raw

	return nil
}

// Records returns copies of the records in display order.
func (s *Store) Records() []models.FlowRecord {
	out := make([]models.FlowRecord, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].Clone()
	}

	return out
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id int64) (models.FlowRecord, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return models.FlowRecord{}, false
	}

	return s.records[idx].Clone(), true
}

func (s *Store) Len() int { return len(s.records) }

func (s *Store) indexOf(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}

	return -1
}

// Pending returns a copy of the outstanding corrections.
func (s *Store) Pending() []models.MissingFieldEntry {
	if len(s.pending) == 0 {
		return nil
	}

	out := make([]models.MissingFieldEntry, len(s.pending))
	copy(out, s.pending)

	return out
}

// SetPending replaces the outstanding corrections.
func (s *Store) SetPending(entries []models.MissingFieldEntry) {
	s.pending = append([]models.MissingFieldEntry(nil), entries...)
}

// UpdatePending edits the proposed value of one outstanding correction.
func (s *Store) UpdatePending(index int, value models.Value) error {
	if index < 0 || index >= len(s.pending) {
		return fmt.Errorf("%w: %d", ErrCorrectionIndex, index)
	}

	s.pending[index].Value = value

	return nil
}

func (s *Store) ClearPending() { s.pending = nil }

// ApplyCorrections writes each entry's value into the referenced record
// and column, then clears the pending list. All entries are checked
// before anything is written: an entry whose index is out of range or
// whose record id no longer matches fails the whole batch.
func (s *Store) ApplyCorrections(entries []models.MissingFieldEntry) error {
	for i := range entries {
		e := entries[i]
		if e.FlowIndex < 0 || e.FlowIndex >= len(s.records) || s.records[e.FlowIndex].ID != e.FlowID {
			return fmt.Errorf("%w: flow %d at index %d", ErrStaleCorrection, e.FlowID, e.FlowIndex)
		}
	}

	for i := range entries {
		e := entries[i]

		rec := &s.records[e.FlowIndex]
		if rec.Fields == nil {
			rec.Fields = make(map[string]models.Value)
		}

		if e.Value.IsAbsent() {
			delete(rec.Fields, e.Column)
			continue
		}

		rec.Fields[e.Column] = e.Value
	}

	s.pending = nil

	return nil
}
