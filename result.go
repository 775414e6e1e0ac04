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

import "time"

// Status is the outcome of a check.
type Status string

const (
	StatusPass      Status = "PASS"
	StatusFail      Status = "FAIL"
	StatusCancelled Status = "CANCELLED"
)

// FaultKind tags results that did not come from a clean evaluation.
type FaultKind string

const (
	FaultNone          FaultKind = ""
	FaultConfiguration FaultKind = "configuration"
	FaultEvaluation    FaultKind = "evaluation"
	FaultCancelled     FaultKind = "cancelled"
)

// SampleRow is one sampled violation restricted to the display columns.
type SampleRow struct {
	Row    RowID          `json:"row"`
	Values map[string]any `json:"values"`
	Note   string         `json:"note,omitempty"`
}

// ExportHandle references the full violation set of a check so that an external
// writer can materialize it without evaluating the check again.
type ExportHandle struct {
	Check string `json:"check"`
	// Rows are dataset positions in sample order.
	Rows []int `json:"rows"`
	// ExtraColumns are derived columns appended to exported rows.
	ExtraColumns []string `json:"extra_columns,omitempty"`
	// Extras holds, per exported row, the derived values keyed by ExtraColumns.
	Extras []map[string]any `json:"-"`
}

// Len returns the number of exported rows.
func (h *ExportHandle) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Rows)
}

// CheckResult represents the result of a data quality check. Status is PASS iff
// Violations is zero.
type CheckResult struct {
	Name          string        `json:"name"`
	Description   string        `json:"desc,omitempty"`
	Status        Status        `json:"status"`
	Violations    int           `json:"violations"`
	SampleColumns []string      `json:"sample_cols"`
	Sample        []SampleRow   `json:"sample"`
	Note          string        `json:"note,omitempty"`
	Fault         FaultKind     `json:"fault,omitempty"`
	OnFail        OnFailAction  `json:"on_fail,omitempty"`
	Export        *ExportHandle `json:"export,omitempty"`
	DurationMs    int64         `json:"duration_ms"`
}

// Passed reports whether the check found no violations.
func (r *CheckResult) Passed() bool {
	return r.Status == StatusPass
}

// DatasetInfo is the dataset-level metadata of a report.
type DatasetInfo struct {
	Name        string `json:"name"`
	RowCount    int    `json:"rows"`
	ColumnCount int    `json:"cols"`
}

// Report is the ordered outcome of one engine run. Results follow the declaration
// order of the checks.
type Report struct {
	RunID       string         `json:"run_id"`
	Dataset     DatasetInfo    `json:"dataset"`
	GeneratedAt time.Time      `json:"generated_at"`
	Results     []*CheckResult `json:"results"`
}

// Failed reports whether any failing check is configured to fail the run.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Passed() {
			continue
		}
		if res.OnFail != OnFailActionWarn {
			return true
		}
	}
	return false
}

// Summary counts results per status.
func (r *Report) Summary() map[Status]int {
	summary := make(map[Status]int, 3)
	for _, res := range r.Results {
		summary[res.Status]++
	}
	return summary
}
