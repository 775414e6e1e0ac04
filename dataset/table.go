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

// Package dataset provides an in-memory, column-major implementation of
// dbqrules.DatasetView and loaders that build it from delimited files.
package dataset

import (
	"fmt"

	"github.com/DataBridgeTech/dbqrules"
)

// Table is an immutable column-major dataset. It is safe for concurrent readers.
type Table struct {
	name     string
	columns  []dbqrules.ColumnInfo
	data     map[string][]any
	rowCount int
	key      []string
}

type Option func(*Table)

// WithName sets the name reported for the table.
func WithName(name string) Option {
	return func(t *Table) {
		t.name = name
	}
}

// WithKey sets the primary key columns used for row identity.
func WithKey(columns ...string) Option {
	return func(t *Table) {
		t.key = columns
	}
}

// New builds a table from row-major values. Each row must have one value per column.
func New(columns []dbqrules.ColumnInfo, rows [][]any, opts ...Option) (*Table, error) {
	data := make(map[string][]any, len(columns))
	for i := range columns {
		data[columns[i].Name] = make([]any, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", r, len(row), len(columns))
		}
		for c, col := range columns {
			data[col.Name][r] = row[c]
		}
	}
	return NewFromColumns(columns, data, opts...)
}

// NewFromColumns builds a table from column slices keyed by name. The slices are
// owned by the table afterwards.
func NewFromColumns(columns []dbqrules.ColumnInfo, data map[string][]any, opts ...Option) (*Table, error) {
	t := &Table{
		columns: make([]dbqrules.ColumnInfo, len(columns)),
		data:    make(map[string][]any, len(columns)),
	}
	copy(t.columns, columns)

	for i, col := range t.columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := t.data[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name: %s", col.Name)
		}
		values, ok := data[col.Name]
		if !ok {
			return nil, fmt.Errorf("no values for column %s", col.Name)
		}
		if i == 0 {
			t.rowCount = len(values)
		} else if len(values) != t.rowCount {
			return nil, fmt.Errorf("column %s has %d values, expected %d", col.Name, len(values), t.rowCount)
		}
		t.columns[i].Position = uint(i + 1)
		t.data[col.Name] = values
	}

	for _, opt := range opts {
		opt(t)
	}
	for _, k := range t.key {
		if _, ok := t.data[k]; !ok {
			return nil, fmt.Errorf("key column %s is not part of the table", k)
		}
	}
	return t, nil
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Columns() []dbqrules.ColumnInfo {
	out := make([]dbqrules.ColumnInfo, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) RowCount() int {
	return t.rowCount
}

func (t *Table) Column(name string) ([]any, bool) {
	values, ok := t.data[name]
	return values, ok
}

func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.columns))
	if i < 0 || i >= t.rowCount {
		return row
	}
	for _, col := range t.columns {
		row[col.Name] = t.data[col.Name][i]
	}
	return row
}

func (t *Table) KeyColumns() []string {
	return t.key
}
