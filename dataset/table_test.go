// Copyright 2025 The DBQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataBridgeTech/dbqrules"
)

var _ dbqrules.DatasetView = (*Table)(nil)

func TestNew(t *testing.T) {
	columns := []dbqrules.ColumnInfo{
		{Name: "car_no", Type: dbqrules.ColumnTypeInteger},
		{Name: "lap", Type: dbqrules.ColumnTypeInteger},
	}

	table, err := New(columns, [][]any{{7, 1}, {7, 2}}, WithName("laps"), WithKey("car_no", "lap"))
	require.NoError(t, err)

	assert.Equal(t, 2, table.RowCount())
	assert.Equal(t, uint(2), table.Columns()[1].Position)
	assert.Equal(t, dbqrules.RowID{Position: 1, Key: []any{7, 2}}, dbqrules.RowIdentity(table, 1))
	assert.Empty(t, table.Row(5))

	_, ok := table.Column("fuel_kg")
	assert.False(t, ok)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		columns []dbqrules.ColumnInfo
		rows    [][]any
	}{
		{
			name:    "row width mismatch",
			columns: []dbqrules.ColumnInfo{{Name: "a"}, {Name: "b"}},
			rows:    [][]any{{1}},
		},
		{
			name:    "duplicate column",
			columns: []dbqrules.ColumnInfo{{Name: "a"}, {Name: "a"}},
			rows:    [][]any{{1, 2}},
		},
		{
			name:    "empty column name",
			columns: []dbqrules.ColumnInfo{{Name: ""}},
			rows:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.columns, tt.rows)
			assert.Error(t, err)
		})
	}
}

func TestColumnsReturnsCopy(t *testing.T) {
	table, err := New([]dbqrules.ColumnInfo{{Name: "a"}}, [][]any{{1}})
	require.NoError(t, err)

	cols := table.Columns()
	cols[0].Name = "changed"
	assert.Equal(t, "a", table.Columns()[0].Name)
}
