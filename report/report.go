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

// Package report renders engine reports for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/DataBridgeTech/dbqrules"
)

// FileName is the name of the JSON report written next to exported violations.
const FileName = "dq_report.json"

func WriteJSON(w io.Writer, rep *dbqrules.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// SaveJSON writes the report as dir/dq_report.json and returns the file path.
func SaveJSON(dir string, rep *dbqrules.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteJSON(f, rep); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, f.Close()
}

// WriteTable prints one line per check followed by the status counts.
// exports maps check names to the location of their exported violations.
func WriteTable(w io.Writer, rep *dbqrules.Report, exports map[string]string) error {
	_, _ = fmt.Fprintf(w, "dataset %s: %d rows, %d columns\n", rep.Dataset.Name, rep.Dataset.RowCount, rep.Dataset.ColumnCount)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Test", "Status", "Violations", "Export", "Note"})
	for _, res := range rep.Results {
		export := "-"
		if location, ok := exports[res.Name]; ok {
			export = location
		}
		t.AppendRow(table.Row{res.Name, res.Status, res.Violations, export, res.Note})
	}
	t.Render()

	summary := rep.Summary()
	_, err := fmt.Fprintf(w, "%d checks: %d passed, %d failed, %d cancelled\n",
		len(rep.Results), summary[dbqrules.StatusPass], summary[dbqrules.StatusFail], summary[dbqrules.StatusCancelled])
	return err
}

// WriteSamples prints the sampled violations of every check that did not pass.
func WriteSamples(w io.Writer, rep *dbqrules.Report) error {
	for _, res := range rep.Results {
		if res.Passed() || len(res.Sample) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(w, "\n%s (%d violations, showing %d)\n", res.Name, res.Violations, len(res.Sample))
		if res.Description != "" {
			_, _ = fmt.Fprintln(w, res.Description)
		}

		withNote := false
		for _, s := range res.Sample {
			if s.Note != "" {
				withNote = true
				break
			}
		}

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)

		header := table.Row{"row"}
		for _, col := range res.SampleColumns {
			header = append(header, col)
		}
		if withNote {
			header = append(header, "note")
		}
		t.AppendHeader(header)

		for _, s := range res.Sample {
			row := table.Row{s.Row.Position}
			for _, col := range res.SampleColumns {
				row = append(row, formatValue(s.Values[col]))
			}
			if withNote {
				row = append(row, s.Note)
			}
			t.AppendRow(row)
		}
		t.Render()
	}
	return nil
}

func formatValue(v any) string {
	s, ok := dbqrules.AsString(v)
	if !ok {
		return "NULL"
	}
	return s
}
