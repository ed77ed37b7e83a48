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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const columnsJSON = `[
  {"name": "IPV4_SRC_ADDR", "type": "string", "description": "Source address", "required": true, "example": "192.168.1.120"},
  {"name": "L4_SRC_PORT", "type": "integer", "description": "Source port", "required": true, "example": "48762"},
  {"name": "FLOW_DURATION_MILLISECONDS", "type": "float", "description": "Duration", "required": false, "example": "0"}
]`

func TestSchemaDecode(t *testing.T) {
	var schema Schema
	require.NoError(t, json.Unmarshal([]byte(columnsJSON), &schema))
	require.NoError(t, schema.Validate())

	assert.Equal(t, []string{"IPV4_SRC_ADDR", "L4_SRC_PORT", "FLOW_DURATION_MILLISECONDS"}, schema.Names())
	assert.Len(t, schema.Required(), 2)

	col, ok := schema.Lookup("L4_SRC_PORT")
	require.True(t, ok)
	assert.Equal(t, KindInteger, col.Kind)
	assert.Equal(t, "48762", col.Example)

	_, ok = schema.Lookup("nope")
	assert.False(t, ok)
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		want   error
	}{
		{"empty", Schema{}, ErrEmptySchema},
		{"unnamed", Schema{{Kind: KindString}}, ErrUnnamedColumn},
		{"reserved id", Schema{{Name: IDField, Kind: KindInteger}}, ErrReservedColumn},
		{"unknown kind", Schema{{Name: "A", Kind: "bool"}}, ErrUnknownColumnKind},
		{"duplicate", Schema{{Name: "A", Kind: KindString}, {Name: "A", Kind: KindFloat}}, ErrDuplicateColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.schema.Validate(), tt.want)
		})
	}
}

func TestColumnKindDefault(t *testing.T) {
	assert.Equal(t, Number(0), KindInteger.Default())
	assert.Equal(t, Number(0), KindFloat.Default())
	assert.Equal(t, String(""), KindString.Default())
}
