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

	"github.com/DataBridgeTech/dbqrules"
)

// DuplicateCountColumn is the derived column holding the size of a duplicate group.
const DuplicateCountColumn = "count"

// UniquenessCheck groups rows by the key columns and flags every row of a group
// larger than one. Null key parts compare equal to each other.
type UniquenessCheck struct {
	base
	key []string
}

func NewUniquenessCheck(name string, key []string, opts ...Option) *UniquenessCheck {
	display := append(append([]string{}, key...), DuplicateCountColumn)
	return &UniquenessCheck{
		base: newBase(name, display, opts),
		key:  key,
	}
}

func (c *UniquenessCheck) Columns() []string {
	return c.key
}

func (c *UniquenessCheck) Evaluate(ctx context.Context, view dbqrules.DatasetView) (*dbqrules.ViolationSet, error) {
	if err := dbqrules.RequireColumns(view, c.name, c.key...); err != nil {
		return nil, err
	}

	keyCols := columnsOf(view, c.key)
	groups := make(map[string][]int)
	for i := 0; i < view.RowCount(); i++ {
		if err := pollCancel(ctx, i); err != nil {
			return nil, err
		}
		key := dbqrules.GroupKey(keyCols, i)
		groups[key] = append(groups[key], i)
	}

	set := &dbqrules.ViolationSet{}
	for key, rows := range groups {
		if len(rows) < 2 {
			continue
		}
		for _, row := range rows {
			set.Violations = append(set.Violations, dbqrules.Violation{
				Row:   row,
				Group: key,
				Seq:   row,
				Note:  dbqrules.NoteDuplicate,
				Extra: map[string]any{DuplicateCountColumn: len(rows)},
			})
		}
	}
	return set, nil
}
