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
	"regexp"

	"github.com/DataBridgeTech/dbqrules"
)

// PatternCheck flags rows whose textual value does not match the pattern.
type PatternCheck struct {
	base
	column  string
	pattern *regexp.Regexp
}

func NewPatternCheck(name string, column string, pattern *regexp.Regexp, opts ...Option) *PatternCheck {
	return &PatternCheck{
		base:    newBase(name, []string{column}, opts),
		column:  column,
		pattern: pattern,
	}
}

func (c *PatternCheck) Columns() []string {
	return []string{c.column}
}

func (c *PatternCheck) Evaluate(ctx context.Context, view dbqrules.DatasetView) (*dbqrules.ViolationSet, error) {
	if err := dbqrules.RequireColumns(view, c.name, c.column); err != nil {
		return nil, err
	}

	values, _ := view.Column(c.column)
	set := &dbqrules.ViolationSet{Note: "pattern: " + c.pattern.String()}
	for i, v := range values {
		if err := pollCancel(ctx, i); err != nil {
			return nil, err
		}
		s, ok := dbqrules.AsString(v)
		if !ok {
			set.Add(i, dbqrules.NoteNull)
			continue
		}
		if !c.pattern.MatchString(s) {
			set.Add(i, dbqrules.NoteNoMatch)
		}
	}
	return set, nil
}

// NotNullCheck flags rows where the column is null.
type NotNullCheck struct {
	base
	column string
}

func NewNotNullCheck(name string, column string, opts ...Option) *NotNullCheck {
	return &NotNullCheck{
		base:   newBase(name, []string{column}, opts),
		column: column,
	}
}

func (c *NotNullCheck) Columns() []string {
	return []string{c.column}
}

func (c *NotNullCheck) Evaluate(ctx context.Context, view dbqrules.DatasetView) (*dbqrules.ViolationSet, error) {
	if err := dbqrules.RequireColumns(view, c.name, c.column); err != nil {
		return nil, err
	}

	values, _ := view.Column(c.column)
	set := &dbqrules.ViolationSet{}
	for i, v := range values {
		if err := pollCancel(ctx, i); err != nil {
			return nil, err
		}
		if _, ok := dbqrules.AsString(v); !ok {
			set.Add(i, dbqrules.NoteNull)
		}
	}
	return set, nil
}
