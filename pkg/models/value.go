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
	"errors"
	"fmt"
	"math"
	"strconv"
)

var errUnsupportedValue = errors.New("value must be a number, a string or null")

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// ValueAbsent is the zero value: the cell was never set.
	ValueAbsent ValueKind = iota
	ValueNumber
	ValueString
)

func (k ValueKind) String() string {
	switch k {
	case ValueAbsent:
		return "absent"
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is the raw content of one cell of a flow record, as typed by the
// user or pre-filled programmatically. Absent and an explicit empty
// string are different values.
type Value struct {
	kind ValueKind
	num  float64
	str  string
}

// Absent returns the unset value.
func Absent() Value { return Value{} }

// Number wraps a numeric value. Non-finite numbers are allowed and are
// treated as empty by validation.
func Number(v float64) Value { return Value{kind: ValueNumber, num: v} }

// String wraps a string value, including the empty string.
func String(s string) Value { return Value{kind: ValueString, str: s} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

// Num returns the numeric payload and whether v holds a number.
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == ValueNumber
}

// Str returns the string payload and whether v holds a string.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == ValueString
}

// IsEmpty reports whether the cell counts as missing: absent, an empty
// string, or a number that is not finite. A numeric zero is present.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case ValueString:
		return v.str == ""
	case ValueNumber:
		return math.IsNaN(v.num) || math.IsInf(v.num, 0)
	default:
		return true
	}
}

// Text renders the value the way it would appear in an input box.
// Absent renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == ValueAbsent {
		return "<absent>"
	}

	return v.Text()
}

// Equal compares kind and payload. NaN numbers compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case ValueNumber:
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}

		return v.num == o.num
	case ValueString:
		return v.str == o.str
	default:
		return true
	}
}

// MarshalJSON encodes absent as null. Non-finite numbers have no JSON
// form and are encoded as null as well.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}

		return json.Marshal(v.num)
	case ValueString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON number, string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Absent()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*v = String(s)

		return nil
	case '{', '[', 't', 'f':
		return fmt.Errorf("%w: %s", errUnsupportedValue, data)
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %w", errUnsupportedValue, err)
	}

	*v = Number(f)

	return nil
}
