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
	"fmt"
	"regexp"
	"strings"

	"github.com/DataBridgeTech/dbqrules"
)

// RowTest evaluates a predicate at a row position. When the value cannot be
// evaluated the test is false and fault names the reason.
type RowTest func(i int) (ok bool, fault string)

// Predicate is a row-level condition over a single column.
type Predicate interface {
	Column() string
	String() string
	// Bind resolves the column against view. A *dbqrules.ConfigurationFault is
	// returned when the column is absent.
	Bind(view dbqrules.DatasetView) (RowTest, error)
}

func bindColumn(view dbqrules.DatasetView, column string) ([]any, error) {
	values, ok := view.Column(column)
	if !ok {
		return nil, &dbqrules.ConfigurationFault{Missing: []string{column}}
	}
	return values, nil
}

type comparePredicate struct {
	column          string
	op              string
	value           any
	caseInsensitive bool
}

// Compare builds column <op> value. Numeric values compare numerically, text
// values compare after trimming and, when caseInsensitive, case folding.
func Compare(column, op string, value any, caseInsensitive bool) (Predicate, error) {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
	default:
		return nil, fmt.Errorf("unsupported comparison operator %q", op)
	}
	return &comparePredicate{column: column, op: op, value: value, caseInsensitive: caseInsensitive}, nil
}

// Equals is Compare with "==" on text, case-insensitive.
func Equals(column string, value string) Predicate {
	return &comparePredicate{column: column, op: "==", value: value, caseInsensitive: true}
}

func (p *comparePredicate) Column() string {
	return p.column
}

func (p *comparePredicate) String() string {
	return fmt.Sprintf("%s %s %v", p.column, p.op, p.value)
}

func (p *comparePredicate) Bind(view dbqrules.DatasetView) (RowTest, error) {
	values, err := bindColumn(view, p.column)
	if err != nil {
		return nil, err
	}

	if want, ok := numericOperand(p.value); ok {
		return func(i int) (bool, string) {
			got, ok := dbqrules.AsFloat(values[i])
			if !ok {
				return false, valueFault(values[i])
			}
			return compareOrdered(got, want, p.op), ""
		}, nil
	}

	norm := newNormalizer(p.caseInsensitive)
	text, _ := dbqrules.AsString(p.value)
	want := norm.normalize(text)
	return func(i int) (bool, string) {
		s, ok := dbqrules.AsString(values[i])
		if !ok {
			return false, dbqrules.NoteNull
		}
		return compareOrdered(norm.normalize(s), want, p.op), ""
	}, nil
}

// numericOperand reports whether a configured operand is a number; numeric
// looking strings stay text so that "007" == "007" is a text comparison.
func numericOperand(v any) (float64, bool) {
	if _, isText := v.(string); isText {
		return 0, false
	}
	return dbqrules.AsFloat(v)
}

func compareOrdered[T float64 | string](got, want T, op string) bool {
	switch op {
	case "==":
		return got == want
	case "!=":
		return got != want
	case "<":
		return got < want
	case "<=":
		return got <= want
	case ">":
		return got > want
	case ">=":
		return got >= want
	}
	return false
}

type betweenPredicate struct {
	column    string
	min, max  float64
	inclusive bool
}

// Between builds min <= column <= max, or strict bounds when inclusive is false.
func Between(column string, min, max float64, inclusive bool) Predicate {
	return &betweenPredicate{column: column, min: min, max: max, inclusive: inclusive}
}

func (p *betweenPredicate) Column() string {
	return p.column
}

func (p *betweenPredicate) String() string {
	return fmt.Sprintf("%s between %s and %s", p.column, formatBound(p.min), formatBound(p.max))
}

func (p *betweenPredicate) Bind(view dbqrules.DatasetView) (RowTest, error) {
	values, err := bindColumn(view, p.column)
	if err != nil {
		return nil, err
	}
	return func(i int) (bool, string) {
		v, ok := dbqrules.AsFloat(values[i])
		if !ok {
			return false, valueFault(values[i])
		}
		if p.inclusive {
			return v >= p.min && v <= p.max, ""
		}
		return v > p.min && v < p.max, ""
	}, nil
}

type inPredicate struct {
	column          string
	values          []string
	caseInsensitive bool
}

// In builds column in (values...).
func In(column string, values []string, caseInsensitive bool) Predicate {
	return &inPredicate{column: column, values: values, caseInsensitive: caseInsensitive}
}

func (p *inPredicate) Column() string {
	return p.column
}

func (p *inPredicate) String() string {
	return fmt.Sprintf("%s in (%s)", p.column, strings.Join(p.values, ", "))
}

func (p *inPredicate) Bind(view dbqrules.DatasetView) (RowTest, error) {
	values, err := bindColumn(view, p.column)
	if err != nil {
		return nil, err
	}
	norm := newNormalizer(p.caseInsensitive)
	set := make(map[string]struct{}, len(p.values))
	for _, v := range p.values {
		set[norm.normalize(v)] = struct{}{}
	}
	return func(i int) (bool, string) {
		s, ok := dbqrules.AsString(values[i])
		if !ok {
			return false, dbqrules.NoteNull
		}
		_, member := set[norm.normalize(s)]
		return member, ""
	}, nil
}

type matchPredicate struct {
	column  string
	pattern *regexp.Regexp
}

// Matches builds column ~ pattern.
func Matches(column string, pattern *regexp.Regexp) Predicate {
	return &matchPredicate{column: column, pattern: pattern}
}

func (p *matchPredicate) Column() string {
	return p.column
}

func (p *matchPredicate) String() string {
	return fmt.Sprintf("%s ~ %s", p.column, p.pattern)
}

func (p *matchPredicate) Bind(view dbqrules.DatasetView) (RowTest, error) {
	values, err := bindColumn(view, p.column)
	if err != nil {
		return nil, err
	}
	return func(i int) (bool, string) {
		s, ok := dbqrules.AsString(values[i])
		if !ok {
			return false, dbqrules.NoteNull
		}
		return p.pattern.MatchString(s), ""
	}, nil
}
