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
	"strings"

	"github.com/DataBridgeTech/dbqrules"
	"golang.org/x/text/cases"
)

// normalizer trims values and optionally case-folds them. A cases.Caser keeps
// state, so every evaluation builds its own normalizer.
type normalizer struct {
	fold   bool
	folder cases.Caser
}

func newNormalizer(caseInsensitive bool) *normalizer {
	n := &normalizer{fold: caseInsensitive}
	if caseInsensitive {
		n.folder = cases.Fold()
	}
	return n
}

func (n *normalizer) normalize(s string) string {
	s = strings.TrimSpace(s)
	if n.fold {
		return n.folder.String(s)
	}
	return s
}

// DomainCheck flags rows whose trimmed value is not one of the allowed values.
type DomainCheck struct {
	base
	column          string
	allowed         []string
	caseInsensitive bool
}

func NewDomainCheck(name string, column string, allowed []string, caseInsensitive bool, opts ...Option) *DomainCheck {
	return &DomainCheck{
		base:            newBase(name, []string{column}, opts),
		column:          column,
		allowed:         allowed,
		caseInsensitive: caseInsensitive,
	}
}

func (c *DomainCheck) Columns() []string {
	return []string{c.column}
}

func (c *DomainCheck) Evaluate(ctx context.Context, view dbqrules.DatasetView) (*dbqrules.ViolationSet, error) {
	if err := dbqrules.RequireColumns(view, c.name, c.column); err != nil {
		return nil, err
	}

	norm := newNormalizer(c.caseInsensitive)
	allowed := make(map[string]struct{}, len(c.allowed))
	for _, v := range c.allowed {
		allowed[norm.normalize(v)] = struct{}{}
	}

	values, _ := view.Column(c.column)
	set := &dbqrules.ViolationSet{Note: fmt.Sprintf("Allowed: %v", c.allowed)}
	for i, v := range values {
		if err := pollCancel(ctx, i); err != nil {
			return nil, err
		}
		s, ok := dbqrules.AsString(v)
		if !ok {
			set.Add(i, dbqrules.NoteNull)
			continue
		}
		if _, ok := allowed[norm.normalize(s)]; !ok {
			set.Add(i, dbqrules.NoteNotAllowed)
		}
	}
	return set, nil
}
