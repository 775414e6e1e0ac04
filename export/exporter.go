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

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DataBridgeTech/dbqrules"
)

// PartFile is the name of the single file written per check.
const PartFile = "part-00000.csv"

// Exporter writes the full violation set of every failing check as one CSV
// file per check: violations/<check>/part-00000.csv.
type Exporter struct {
	sink    Sink
	workers int
	logger  *slog.Logger
}

func NewExporter(sink Sink, logger *slog.Logger, workers int) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Exporter{sink: sink, workers: workers, logger: logger}
}

// Key returns the sink key of the export for the given check. Path separators,
// percent signs and dots that would form "." or ".." segments are percent-encoded,
// so distinct check names never share a key.
func Key(check string) string {
	return "violations/" + escapeName(check) + "/" + PartFile
}

func escapeName(name string) string {
	if name == "" {
		return "%00"
	}
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '%' || c == '/' || c == '\\':
			fmt.Fprintf(&sb, "%%%02X", c)
		case c == '.' && (i == 0 || name[i-1] == '.'):
			sb.WriteString("%2E")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Export writes every failing result that carries dataset rows and returns the
// written locations keyed by check name. The first failed write cancels the rest.
func (e *Exporter) Export(ctx context.Context, view dbqrules.DatasetView, results []*dbqrules.CheckResult) (map[string]string, error) {
	var (
		mu        sync.Mutex
		locations = make(map[string]string)
	)

	owners := make(map[string]string)
	for _, result := range results {
		if !exportable(result) {
			continue
		}
		key := Key(result.Export.Check)
		if owner, ok := owners[key]; ok {
			return nil, fmt.Errorf("%w: %s and %s both export to %s", ErrInvalidPath, owner, result.Export.Check, key)
		}
		owners[key] = result.Export.Check
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, result := range results {
		if !exportable(result) {
			continue
		}
		handle := result.Export
		g.Go(func() error {
			startTime := time.Now()
			body, err := Encode(view, handle)
			if err != nil {
				return fmt.Errorf("failed to encode violations of %s: %w", handle.Check, err)
			}
			location, err := e.sink.Write(gCtx, Key(handle.Check), body)
			if err != nil {
				return fmt.Errorf("failed to export violations of %s: %w", handle.Check, err)
			}

			mu.Lock()
			locations[handle.Check] = location
			mu.Unlock()

			e.logger.Debug("violations exported",
				"check_name", handle.Check,
				"rows", handle.Len(),
				"location", location,
				"duration_ms", time.Since(startTime).Milliseconds())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return locations, err
	}
	return locations, nil
}

func exportable(result *dbqrules.CheckResult) bool {
	return result != nil && result.Status == dbqrules.StatusFail && result.Export.Len() > 0
}

// Encode renders the rows referenced by handle as CSV with a header. Columns are
// the dataset columns followed by the handle's extra columns; nulls are empty cells.
func Encode(view dbqrules.DatasetView, handle *dbqrules.ExportHandle) ([]byte, error) {
	columns := view.Columns()
	header := make([]string, 0, len(columns)+len(handle.ExtraColumns))
	for _, col := range columns {
		header = append(header, col.Name)
	}
	header = append(header, handle.ExtraColumns...)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	record := make([]string, len(header))
	for i, pos := range handle.Rows {
		if pos < 0 || pos >= view.RowCount() {
			return nil, fmt.Errorf("row %d out of range", pos)
		}
		row := view.Row(pos)
		for j, col := range columns {
			record[j], _ = dbqrules.AsString(row[col.Name])
		}
		for j, name := range handle.ExtraColumns {
			var value any
			if i < len(handle.Extras) {
				value = handle.Extras[i][name]
			}
			record[len(columns)+j], _ = dbqrules.AsString(value)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
