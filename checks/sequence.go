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
	"sort"

	"github.com/DataBridgeTech/dbqrules"
)

// PreviousPrefix prefixes the derived column holding the predecessor value.
const PreviousPrefix = "prev_"

// OrderedSequenceCheck flags rows whose value is strictly less than the value of
// the row right before it in the same partition.
//
// Rows of a partition are ordered by the numeric order key with input order as
// the tie-break. Without an order key the input order is used as is. The first
// row of a partition never violates. Rows with a null or non-numeric compared
// value violate on their own and leave their successor without a predecessor.
// Rows with a non-numeric order key violate and are left out of the sequence.
type OrderedSequenceCheck struct {
	base
	partitionBy []string
	orderBy     string
	column      string
}

func NewOrderedSequenceCheck(name string, partitionBy []string, orderBy string, column string, opts ...Option) *OrderedSequenceCheck {
	display := append(append([]string{}, partitionBy...), PreviousPrefix+column, column)
	return &OrderedSequenceCheck{
		base:        newBase(name, display, opts),
		partitionBy: partitionBy,
		orderBy:     orderBy,
		column:      column,
	}
}

func (c *OrderedSequenceCheck) Columns() []string {
	cols := append(append([]string{}, c.partitionBy...), c.column)
	if c.orderBy != "" {
		cols = append(cols, c.orderBy)
	}
	return uniqueColumns(cols...)
}

type sequenceRow struct {
	row   int
	order float64
}

func (c *OrderedSequenceCheck) Evaluate(ctx context.Context, view dbqrules.DatasetView) (*dbqrules.ViolationSet, error) {
	if err := dbqrules.RequireColumns(view, c.name, c.Columns()...); err != nil {
		return nil, err
	}

	partCols := columnsOf(view, c.partitionBy)
	compared, _ := view.Column(c.column)
	var orderValues []any
	if c.orderBy != "" {
		orderValues, _ = view.Column(c.orderBy)
	}

	set := &dbqrules.ViolationSet{}
	partitions := make(map[string][]sequenceRow)
	var keys []string
	for i := 0; i < view.RowCount(); i++ {
		if err := pollCancel(ctx, i); err != nil {
			return nil, err
		}
		key := dbqrules.GroupKey(partCols, i)
		entry := sequenceRow{row: i, order: float64(i)}
		if orderValues != nil {
			order, ok := dbqrules.AsFloat(orderValues[i])
			if !ok {
				set.Violations = append(set.Violations, dbqrules.Violation{
					Row:   i,
					Group: key,
					Seq:   -1,
					Note:  "order key: " + valueFault(orderValues[i]),
				})
				continue
			}
			entry.order = order
		}
		if _, ok := partitions[key]; !ok {
			keys = append(keys, key)
		}
		partitions[key] = append(partitions[key], entry)
	}

	prevColumn := PreviousPrefix + c.column
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows := partitions[key]
		if orderValues != nil {
			sort.SliceStable(rows, func(a, b int) bool {
				return rows[a].order < rows[b].order
			})
		}

		var prev float64
		var prevRaw any
		hasPrev := false
		for pos, entry := range rows {
			raw := compared[entry.row]
			cur, ok := dbqrules.AsFloat(raw)
			if !ok {
				set.Violations = append(set.Violations, dbqrules.Violation{
					Row:   entry.row,
					Group: key,
					Seq:   pos,
					Note:  valueFault(raw),
				})
				hasPrev = false
				continue
			}
			if hasPrev && cur < prev {
				set.Violations = append(set.Violations, dbqrules.Violation{
					Row:   entry.row,
					Group: key,
					Seq:   pos,
					Note:  dbqrules.NoteDecreasing,
					Extra: map[string]any{prevColumn: prevRaw},
				})
			}
			prev, prevRaw, hasPrev = cur, raw, true
		}
	}
	return set, nil
}
