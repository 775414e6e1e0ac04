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

// NoteConsequentFailed marks rows where the antecedent held but the consequent did not.
const NoteConsequentFailed = "consequent not satisfied"

// ConditionalCheck flags rows where the antecedent holds and the consequent does
// not. Rows where the antecedent is false, including a null antecedent value,
// never violate.
type ConditionalCheck struct {
	base
	antecedent Predicate
	consequent Predicate
}

func NewConditionalCheck(name string, antecedent, consequent Predicate, opts ...Option) *ConditionalCheck {
	return &ConditionalCheck{
		base:       newBase(name, uniqueColumns(antecedent.Column(), consequent.Column()), opts),
		antecedent: antecedent,
		consequent: consequent,
	}
}

func (c *ConditionalCheck) Columns() []string {
	return uniqueColumns(c.antecedent.Column(), c.consequent.Column())
}

func (c *ConditionalCheck) Evaluate(ctx context.Context, view dbqrules.DatasetView) (*dbqrules.ViolationSet, error) {
	if err := dbqrules.RequireColumns(view, c.name, c.Columns()...); err != nil {
		return nil, err
	}

	when, err := c.antecedent.Bind(view)
	if err != nil {
		return nil, err
	}
	then, err := c.consequent.Bind(view)
	if err != nil {
		return nil, err
	}

	set := &dbqrules.ViolationSet{Note: "if " + c.antecedent.String() + " then " + c.consequent.String()}
	for i := 0; i < view.RowCount(); i++ {
		if err := pollCancel(ctx, i); err != nil {
			return nil, err
		}
		if holds, _ := when(i); !holds {
			continue
		}
		ok, fault := then(i)
		if ok {
			continue
		}
		if fault == "" {
			fault = NoteConsequentFailed
		}
		set.Add(i, fault)
	}
	return set, nil
}

func uniqueColumns(columns ...string) []string {
	seen := make(map[string]struct{}, len(columns))
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
