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
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"absent", Absent(), true},
		{"empty string", String(""), true},
		{"NaN", Number(math.NaN()), true},
		{"infinity", Number(math.Inf(1)), true},
		{"zero", Number(0), false},
		{"string zero", String("0"), false},
		{"space", String(" "), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.IsEmpty())
		})
	}
}

func TestValueAbsentDiffersFromEmptyString(t *testing.T) {
	assert.False(t, Absent().Equal(String("")))
	assert.True(t, Absent().IsAbsent())
	assert.False(t, String("").IsAbsent())
	assert.Equal(t, "", Absent().Text())
	assert.Equal(t, "<absent>", Absent().String())
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "6", Number(6).Text())
	assert.Equal(t, "0.25", Number(0.25).Text())
	assert.Equal(t, "-3", Number(-3).Text())
	assert.Equal(t, "tcp", String("tcp").Text())
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Value
	}{
		{`null`, Absent()},
		{`"6"`, String("6")},
		{`""`, String("")},
		{`6`, Number(6)},
		{`-1.5`, Number(-1.5)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var v Value
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &v))
			assert.True(t, tt.want.Equal(v), "got %v", v)

			out, err := json.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.raw, string(out))
		})
	}
}

func TestValueJSONRejectsCompositeValues(t *testing.T) {
	for _, raw := range []string{`{}`, `[1]`, `true`, `false`} {
		var v Value
		require.Error(t, json.Unmarshal([]byte(raw), &v), raw)
	}
}

func TestValueJSONNonFinite(t *testing.T) {
	out, err := json.Marshal(Number(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestValueInFieldMap(t *testing.T) {
	var rec FlowRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"fields":{"PROTOCOL":"6","PORT":443,"NOTE":null}}`), &rec))

	assert.Equal(t, int64(3), rec.ID)
	assert.Equal(t, String("6"), rec.Get("PROTOCOL"))
	assert.Equal(t, Number(443), rec.Get("PORT"))
	assert.True(t, rec.Get("NOTE").IsAbsent())
	assert.True(t, rec.Get("MISSING").IsAbsent())
}
