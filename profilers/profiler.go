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

// Package profilers computes per-column statistics of a dataset, the numbers
// one looks at when choosing check thresholds.
package profilers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/DataBridgeTech/dbqrules"
)

// TableMetrics represents the metrics of a dataset.
type TableMetrics struct {
	ProfiledAt          int64                     `json:"profiled_at"`
	TableName           string                    `json:"table_name"`
	TotalRows           uint64                    `json:"total_rows"`
	ColumnsMetrics      map[string]*ColumnMetrics `json:"columns_metrics"`
	RowsSample          []map[string]any          `json:"rows_sample,omitempty"`
	ProfilingDurationMs int64                     `json:"profiling_duration_ms"`
	Errors              []string                  `json:"errors,omitempty"`
}

// ColumnMetrics represents the metrics of a column.
type ColumnMetrics struct {
	ColumnName          string              `json:"col_name"`
	ColumnPosition      uint                `json:"col_position"`
	DataType            dbqrules.ColumnType `json:"data_type"`
	NullCount           uint64              `json:"null_count"`
	DistinctCount       uint64              `json:"distinct_count"`
	BlankCount          *int64              `json:"blank_count,omitempty"`  // string only
	MinValue            *float64            `json:"min_value,omitempty"`    // numeric only
	MaxValue            *float64            `json:"max_value,omitempty"`    // numeric only
	AvgValue            *float64            `json:"avg_value,omitempty"`    // numeric only
	StddevValue         *float64            `json:"stddev_value,omitempty"` // numeric only (population)
	MostFrequentValue   *string             `json:"most_frequent_value,omitempty"`
	ProfilingDurationMs int64               `json:"profiling_duration_ms"`
}

type Profiler struct {
	logger        *slog.Logger
	maxConcurrent int
	sampleSize    int
}

func NewProfiler(logger *slog.Logger, maxConcurrent int) *Profiler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Profiler{
		logger:        logger,
		maxConcurrent: maxConcurrent,
		sampleSize:    dbqrules.DefaultSampleSize,
	}
}

// ProfileDataset profiles every column in parallel. With sample set the first
// rows of the dataset are included.
func (p *Profiler) ProfileDataset(ctx context.Context, view dbqrules.DatasetView, sample bool) (*TableMetrics, error) {
	startTime := time.Now()
	taskPool := dbqrules.NewTaskPool(p.maxConcurrent, p.logger)

	columns := view.Columns()
	metrics := &TableMetrics{
		ProfiledAt:     startTime.Unix(),
		TableName:      view.Name(),
		TotalRows:      uint64(view.RowCount()),
		ColumnsMetrics: make(map[string]*ColumnMetrics, len(columns)),
	}

	if len(columns) == 0 {
		p.logger.Warn("no columns found for dataset, returning basic info", "dataset", view.Name())
		metrics.ProfilingDurationMs = time.Since(startTime).Milliseconds()
		return metrics, nil
	}

	if sample {
		for i := 0; i < min(p.sampleSize, view.RowCount()); i++ {
			metrics.RowsSample = append(metrics.RowsSample, view.Row(i))
		}
	}

	// one slot per column, each written by a single task
	colMetrics := make([]*ColumnMetrics, len(columns))
	for i, col := range columns {
		taskPool.Enqueue(ctx, "task:"+col.Name, func() error {
			m, err := ProfileColumn(ctx, view, col)
			if err != nil {
				return fmt.Errorf("failed to profile column %s: %w", col.Name, err)
			}
			colMetrics[i] = m
			p.logger.Debug("finished processing column",
				"col_name", col.Name,
				"proc_duration_ms", m.ProfilingDurationMs)
			return nil
		})
	}
	taskPool.Join()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, m := range colMetrics {
		if m != nil {
			metrics.ColumnsMetrics[m.ColumnName] = m
		}
	}
	for _, err := range taskPool.Errors() {
		metrics.Errors = append(metrics.Errors, err.Error())
	}

	metrics.ProfilingDurationMs = time.Since(startTime).Milliseconds()
	p.logger.Debug("finished data profiling for dataset",
		"dataset", view.Name(),
		"profile_duration_ms", metrics.ProfilingDurationMs)
	return metrics, nil
}

// ProfileColumn computes the metrics of a single column in one pass.
func ProfileColumn(ctx context.Context, view dbqrules.DatasetView, col dbqrules.ColumnInfo) (*ColumnMetrics, error) {
	startTime := time.Now()
	values, ok := view.Column(col.Name)
	if !ok {
		return nil, &dbqrules.ConfigurationFault{Missing: []string{col.Name}}
	}

	m := &ColumnMetrics{
		ColumnName:     col.Name,
		ColumnPosition: col.Position,
		DataType:       col.Type,
	}
	numeric := col.Type == dbqrules.ColumnTypeInteger || col.Type == dbqrules.ColumnTypeFloat

	var (
		blank              int64
		count              int
		sum, sumSq, lo, hi float64
		frequencies        = make(map[string]int)
	)
	for i, v := range values {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		text, ok := dbqrules.AsString(v)
		if !ok {
			m.NullCount++
			continue
		}
		frequencies[text]++

		if col.Type == dbqrules.ColumnTypeString && isBlank(text) {
			blank++
		}
		if !numeric {
			continue
		}
		f, ok := dbqrules.AsFloat(v)
		if !ok {
			continue
		}
		if count == 0 || f < lo {
			lo = f
		}
		if count == 0 || f > hi {
			hi = f
		}
		count++
		sum += f
		sumSq += f * f
	}

	m.DistinctCount = uint64(len(frequencies))
	if col.Type == dbqrules.ColumnTypeString {
		m.BlankCount = &blank
	}
	if numeric && count > 0 {
		avg := sum / float64(count)
		stddev := math.Sqrt(math.Max(sumSq/float64(count)-avg*avg, 0))
		m.MinValue, m.MaxValue, m.AvgValue, m.StddevValue = &lo, &hi, &avg, &stddev
	}
	m.MostFrequentValue = mostFrequent(frequencies)
	m.ProfilingDurationMs = time.Since(startTime).Milliseconds()
	return m, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// mostFrequent breaks ties by the smallest value so profiles are reproducible.
func mostFrequent(frequencies map[string]int) *string {
	var (
		best  string
		count int
	)
	for value, n := range frequencies {
		if n > count || (n == count && value < best) {
			best, count = value, n
		}
	}
	if count == 0 {
		return nil
	}
	return &best
}
