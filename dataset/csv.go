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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DataBridgeTech/dbqrules"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CSVOptions control how a delimited file is read.
type CSVOptions struct {
	// Delimiter separates fields, defaults to ','.
	Delimiter string
	// Key lists the primary key columns, after header normalization.
	Key []string
	// Name is reported as the dataset name.
	Name string
}

// NormalizeHeader strips a byte order mark, trims the name and collapses inner
// whitespace runs to a single underscore.
func NormalizeHeader(name string) string {
	name = strings.ReplaceAll(name, "\ufeff", "")
	name = strings.TrimSpace(name)
	return whitespaceRun.ReplaceAllString(name, "_")
}

// ReadCSVFile reads a delimited file with a header row. The dataset is named
// after the file unless opts.Name is set.
func ReadCSVFile(path string, opts CSVOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file %s: %w", path, err)
	}
	defer file.Close()

	if opts.Name == "" {
		opts.Name = filepath.Base(path)
	}
	return ReadCSV(file, opts)
}

// ReadCSV reads a delimited stream with a header row. Empty cells are null.
// Column types are inferred from the non-null cells, preferring integer, then
// float, then boolean, then string.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	if opts.Delimiter != "" {
		delim, size := utf8.DecodeRuneInString(opts.Delimiter)
		if size != len(opts.Delimiter) {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", opts.Delimiter)
		}
		reader.Comma = delim
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("dataset has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]dbqrules.ColumnInfo, len(header))
	raw := make([][]string, len(header))
	nulls := make([][]bool, len(header))
	for i, name := range header {
		columns[i] = dbqrules.ColumnInfo{Name: NormalizeHeader(name)}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		line++
		if len(record) != len(header) {
			return nil, fmt.Errorf("line %d has %d fields, expected %d", line, len(record), len(header))
		}
		for c, cell := range record {
			raw[c] = append(raw[c], cell)
			nulls[c] = append(nulls[c], strings.TrimSpace(cell) == "")
		}
	}

	data := make(map[string][]any, len(columns))
	for c := range columns {
		columns[c].Type = inferType(raw[c], nulls[c])
		data[columns[c].Name] = convertColumn(raw[c], nulls[c], columns[c].Type)
	}

	tableOpts := []Option{WithName(opts.Name)}
	if len(opts.Key) > 0 {
		tableOpts = append(tableOpts, WithKey(opts.Key...))
	}
	return NewFromColumns(columns, data, tableOpts...)
}

func inferType(cells []string, nulls []bool) dbqrules.ColumnType {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for i, cell := range cells {
		if nulls[i] {
			continue
		}
		seen = true
		s := strings.TrimSpace(cell)
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat && !isInt {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, err := parseBool(s); err != nil {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return dbqrules.ColumnTypeString
		}
	}

	switch {
	case !seen:
		return dbqrules.ColumnTypeString
	case isInt:
		return dbqrules.ColumnTypeInteger
	case isFloat:
		return dbqrules.ColumnTypeFloat
	case isBool:
		return dbqrules.ColumnTypeBoolean
	default:
		return dbqrules.ColumnTypeString
	}
}

func convertColumn(cells []string, nulls []bool, typ dbqrules.ColumnType) []any {
	values := make([]any, len(cells))
	for i, cell := range cells {
		if nulls[i] {
			continue
		}
		s := strings.TrimSpace(cell)
		switch typ {
		case dbqrules.ColumnTypeInteger:
			values[i], _ = strconv.ParseInt(s, 10, 64)
		case dbqrules.ColumnTypeFloat:
			values[i], _ = strconv.ParseFloat(s, 64)
		case dbqrules.ColumnTypeBoolean:
			values[i], _ = parseBool(s)
		default:
			values[i] = cell
		}
	}
	return values
}

// parseBool accepts only the literal words true and false, so that 0 and 1
// columns stay integers.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
