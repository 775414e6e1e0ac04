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

package checks

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/DataBridgeTech/dbqrules"
)

// RangeCheck flags rows whose value is null, not numeric, or outside the bounds.
// Use math.Inf for an open side.
type RangeCheck struct {
	base
	column    string
	min       float64
	max       float64
	inclusive bool
}

func NewRangeCheck(name string, column string, min, max float64, inclusive bool, opts ...Option) *RangeCheck {
	return &RangeCheck{
		base:      newBase(name, []string{column}, opts),
		column:    column,
		min:       min,
		max:       max,
		inclusive: inclusive,
	}
}

func (c *RangeCheck) Columns() []string {
	return []string{c.column}
}

func (c *RangeCheck) within(v float64) bool {
	if c.inclusive {
		return v >= c.min && v <= c.max
	}
	return v > c.min && v < c.max
}

func (c *RangeCheck) bounds() string {
	lo, hi := "(", ")"
	if c.inclusive {
		lo, hi = "[", "]"
	}
	return fmt.Sprintf("expected %s%s, %s%s", lo, formatBound(c.min), formatBound(c.max), hi)
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

func (c *RangeCheck) Evaluate(ctx context.Context, view dbqrules.DatasetView) (*dbqrules.ViolationSet, error) {
	if err := dbqrules.RequireColumns(view, c.name, c.column); err != nil {
		return nil, err
	}

	values, _ := view.Column(c.column)
	set := &dbqrules.ViolationSet{Note: c.bounds()}
	for i, v := range values {
		if err := pollCancel(ctx, i); err != nil {
			return nil, err
		}
		f, ok := dbqrules.AsFloat(v)
		if !ok {
			set.Add(i, valueFault(v))
			continue
		}
		if !c.within(f) {
			set.Add(i, dbqrules.NoteOutOfRange)
		}
	}
	return set, nil
}
