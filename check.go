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
	"context"
	"fmt"
	"strings"
)

// Check is the interface that wraps a single data quality rule.
type Check interface {
	// Name is unique within a run and is used as the report key.
	Name() string

	// Columns returns the columns the check depends on.
	Columns() []string

	// DisplayColumns returns the columns shown in sampled violations. Names that are
	// not dataset columns are looked up in the violation extras.
	DisplayColumns() []string

	// Evaluate returns the violating rows. It must not modify the view.
	// A *ConfigurationFault is returned when required columns are absent.
	Evaluate(ctx context.Context, view DatasetView) (*ViolationSet, error)
}

// OnFailAction tells the caller how to treat a failing check.
type OnFailAction string

const (
	OnFailActionWarn  OnFailAction = "warn"
	OnFailActionError OnFailAction = "error"
)

// Described is implemented by checks that carry config metadata.
type Described interface {
	Description() string
	OnFail() OnFailAction
}

// SyntheticRow marks a violation that does not map to a dataset row.
const SyntheticRow = -1

// Violation is one violating row, or a synthetic marker when Row is SyntheticRow.
type Violation struct {
	Row int
	// Group orders violations in samples: the group key for grouped checks,
	// the partition key for sequence checks, empty for row-level checks.
	Group string
	// Seq orders violations inside a group; row-level checks leave it at the row position.
	Seq int
	// Note tells value faults (null, unparseable) apart from plain predicate failures.
	Note string
	// Extra holds derived display values such as a duplicate count or previous value.
	Extra map[string]any
}

// ViolationSet is the raw outcome of a check evaluation.
type ViolationSet struct {
	Violations []Violation
	Note       string
}

// Count returns the number of violations.
func (s *ViolationSet) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Violations)
}

// Add appends a row violation ordered by its input position.
func (s *ViolationSet) Add(row int, note string) {
	s.Violations = append(s.Violations, Violation{Row: row, Seq: row, Note: note})
}

// ConfigurationFault is returned by a check whose columns are absent from the dataset.
type ConfigurationFault struct {
	Check   string
	Missing []string
}

func (e *ConfigurationFault) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Missing, ", "))
}

// RequireColumns returns a *ConfigurationFault if any column is absent.
func RequireColumns(view DatasetView, check string, columns ...string) error {
	if missing := MissingColumns(view, columns...); len(missing) > 0 {
		return &ConfigurationFault{Check: check, Missing: missing}
	}
	return nil
}

// Value fault and predicate notes attached to row violations.
const (
	NoteNull        = "null value"
	NoteUnparseable = "value not coercible"
	NoteOutOfRange  = "value out of range"
	NoteNotAllowed  = "value not in domain"
	NoteNoMatch     = "value does not match pattern"
	NoteDuplicate   = "duplicate key"
	NoteDecreasing  = "value decreased"
)
