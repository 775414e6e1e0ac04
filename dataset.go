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

package dbqrules

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the scalar type declared or inferred for a column.
type ColumnType string

const (
	ColumnTypeInteger ColumnType = "integer"
	ColumnTypeFloat   ColumnType = "float"
	ColumnTypeString  ColumnType = "string"
	ColumnTypeBoolean ColumnType = "boolean"
)

// ColumnInfo represents the basic information of a column.
type ColumnInfo struct {
	Name     string
	Type     ColumnType
	Position uint
}

// DatasetView is a read-only handle to named, typed columnar rows.
// Implementations must be safe for concurrent readers. A nil value in a
// column denotes null.
type DatasetView interface {
	// Name identifies the dataset in reports, e.g. a file name or db.table.
	Name() string

	// Columns returns the columns in their declared order.
	Columns() []ColumnInfo

	// RowCount returns the number of rows.
	RowCount() int

	// Column returns the values of the named column, or false if the column is absent.
	// The returned slice is shared and must not be modified.
	Column(name string) ([]any, bool)

	// Row returns the row at position i as a column name to value mapping.
	Row(i int) map[string]any

	// KeyColumns returns the primary key columns used for row identity, may be empty.
	KeyColumns() []string
}

// HasColumn reports whether the view has a column with the given name.
func HasColumn(view DatasetView, name string) bool {
	_, ok := view.Column(name)
	return ok
}

// MissingColumns returns the names from required that are absent in the view,
// preserving the order of required.
func MissingColumns(view DatasetView, required ...string) []string {
	var missing []string
	for _, name := range required {
		if !HasColumn(view, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// RowID is the identity of a row: its position plus the key column values when
// the view declares a key.
type RowID struct {
	Position int   `json:"position"`
	Key      []any `json:"key,omitempty"`
}

// RowIdentity derives the identity of the row at position i without scanning.
func RowIdentity(view DatasetView, i int) RowID {
	id := RowID{Position: i}
	for _, name := range view.KeyColumns() {
		values, ok := view.Column(name)
		if !ok || i < 0 || i >= len(values) {
			id.Key = append(id.Key, nil)
			continue
		}
		id.Key = append(id.Key, values[i])
	}
	return id
}

// AsFloat coerces v into a float64. Strings are trimmed and parsed, booleans and
// nulls are not coercible.
func AsFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, !math.IsNaN(val)
	case float32:
		return float64(val), !math.IsNaN(float64(val))
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case []byte:
		return AsFloat(string(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case *string:
		if val == nil {
			return 0, false
		}
		return AsFloat(*val)
	case *float64:
		if val == nil {
			return 0, false
		}
		return AsFloat(*val)
	case *int64:
		if val == nil {
			return 0, false
		}
		return float64(*val), true
	default:
		return 0, false
	}
}

// AsString renders v as text. Null values return false.
func AsString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case *string:
		if val == nil {
			return "", false
		}
		return *val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case bool:
		return strconv.FormatBool(val), true
	case time.Time:
		return val.Format(time.RFC3339Nano), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}

// GroupKey encodes the values of the given columns at row i into a single
// comparable string. Each part is tagged: 0 for null, 1 followed by the
// length-prefixed text otherwise, so distinct tuples never share a key and
// nulls differ from empty strings. Nulls group together.
func GroupKey(columns [][]any, i int) string {
	var sb strings.Builder
	for _, values := range columns {
		s, ok := AsString(values[i])
		if !ok {
			sb.WriteByte('0')
			continue
		}
		sb.WriteByte('1')
		sb.WriteString(strconv.Itoa(len(s)))
		sb.WriteByte(':')
		sb.WriteString(s)
	}
	return sb.String()
}
