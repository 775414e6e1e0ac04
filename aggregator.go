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
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// DefaultSampleSize is the number of violating rows kept in a result sample.
const DefaultSampleSize = 20

// Aggregator turns raw violation sets into check results.
type Aggregator struct {
	sampleSize int
}

func NewAggregator(sampleSize int) *Aggregator {
	if sampleSize < 0 {
		sampleSize = 0
	}
	return &Aggregator{sampleSize: sampleSize}
}

// Aggregate builds the result of check from its evaluation outcome. The sample is
// the first N violations ordered by group, then sequence, then row position, so
// identical inputs always yield identical samples.
func (a *Aggregator) Aggregate(check Check, view DatasetView, set *ViolationSet, evalErr error) *CheckResult {
	result := &CheckResult{
		Name:          check.Name(),
		SampleColumns: []string{},
		Sample:        []SampleRow{},
		OnFail:        OnFailActionError,
	}
	if d, ok := check.(Described); ok {
		result.Description = d.Description()
		if d.OnFail() != "" {
			result.OnFail = d.OnFail()
		}
	}

	if evalErr != nil {
		return a.faulted(result, evalErr)
	}

	result.Note = set.Note
	result.Violations = set.Count()
	if result.Violations == 0 {
		result.Status = StatusPass
		return result
	}
	result.Status = StatusFail

	ordered := make([]Violation, 0, len(set.Violations))
	for _, v := range set.Violations {
		if v.Row != SyntheticRow {
			ordered = append(ordered, v)
		}
	}
	if len(ordered) == 0 {
		return result
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Group != ordered[j].Group {
			return ordered[i].Group < ordered[j].Group
		}
		if ordered[i].Seq != ordered[j].Seq {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].Row < ordered[j].Row
	})

	result.SampleColumns = displayColumns(check, view, ordered)
	limit := min(a.sampleSize, len(ordered))
	for _, v := range ordered[:limit] {
		result.Sample = append(result.Sample, sampleRow(view, v, result.SampleColumns))
	}

	result.Export = exportHandle(check.Name(), view, ordered)
	return result
}

func (a *Aggregator) faulted(result *CheckResult, err error) *CheckResult {
	result.Status = StatusFail
	result.Violations = 1

	var cfgFault *ConfigurationFault
	switch {
	case errors.As(err, &cfgFault):
		result.Fault = FaultConfiguration
		result.Note = cfgFault.Error()
	case errors.Is(err, ErrCheckCancelled):
		result.Status = StatusCancelled
		result.Fault = FaultCancelled
		result.Note = err.Error()
	default:
		result.Fault = FaultEvaluation
		result.Note = fmt.Sprintf("evaluation failed: %v", err)
	}
	return result
}

// displayColumns keeps the declared display columns that resolve either to a
// dataset column or to a derived value.
func displayColumns(check Check, view DatasetView, violations []Violation) []string {
	cols := []string{}
	for _, name := range check.DisplayColumns() {
		if HasColumn(view, name) || hasExtra(violations, name) {
			cols = append(cols, name)
		}
	}
	return cols
}

func hasExtra(violations []Violation, name string) bool {
	for _, v := range violations {
		if _, ok := v.Extra[name]; ok {
			return true
		}
	}
	return false
}

func sampleRow(view DatasetView, v Violation, cols []string) SampleRow {
	values := make(map[string]any, len(cols))
	for _, name := range cols {
		if extra, ok := v.Extra[name]; ok {
			values[name] = extra
			continue
		}
		if column, ok := view.Column(name); ok {
			values[name] = column[v.Row]
		}
	}
	return SampleRow{Row: RowIdentity(view, v.Row), Values: values, Note: v.Note}
}

func exportHandle(check string, view DatasetView, violations []Violation) *ExportHandle {
	handle := &ExportHandle{
		Check: check,
		Rows:  make([]int, 0, len(violations)),
	}

	extraCols := map[string]struct{}{}
	for _, v := range violations {
		handle.Rows = append(handle.Rows, v.Row)
		for name := range v.Extra {
			if !HasColumn(view, name) {
				extraCols[name] = struct{}{}
			}
		}
	}
	if len(extraCols) == 0 {
		return handle
	}

	for name := range extraCols {
		handle.ExtraColumns = append(handle.ExtraColumns, name)
	}
	slices.SortFunc(handle.ExtraColumns, strings.Compare)

	handle.Extras = make([]map[string]any, len(violations))
	for i, v := range violations {
		handle.Extras[i] = v.Extra
	}
	return handle
}
