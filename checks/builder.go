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
	"math"
	"regexp"

	"github.com/DataBridgeTech/dbqrules"
)

// FromConfig builds the checks declared in a checks file, in declaration order.
func FromConfig(cfg *dbqrules.ChecksFileConfig) ([]dbqrules.Check, error) {
	built := make([]dbqrules.Check, 0, len(cfg.Checks))
	for i := range cfg.Checks {
		check, err := Build(&cfg.Checks[i], cfg.Dataset)
		if err != nil {
			return nil, fmt.Errorf("check #%d (%s): %w", i+1, cfg.Checks[i].Expression, err)
		}
		built = append(built, check)
	}
	return built, nil
}

// Build creates a single check from its configuration.
func Build(cfg *dbqrules.DataQualityCheck, dataset dbqrules.DatasetConfig) (dbqrules.Check, error) {
	parsed := cfg.ParsedCheck
	if parsed == nil {
		return nil, fmt.Errorf("check does not have parsed structure")
	}

	name := cfg.CheckName()
	opts := []Option{
		WithDescription(cfg.Description),
		WithOnFail(cfg.OnFail),
		WithDisplay(cfg.Display...),
	}
	params := parsed.FunctionParameters

	switch parsed.FunctionName {
	case "required_columns":
		if len(params) == 0 {
			return nil, fmt.Errorf("required_columns check requires at least one column")
		}
		return NewPresenceCheck(name, params, opts...), nil

	case "uniqueness":
		key := params
		if len(key) == 0 {
			key = dataset.Key
		}
		if len(key) == 0 {
			return nil, fmt.Errorf("uniqueness check requires key columns")
		}
		return NewUniquenessCheck(name, key, opts...), nil

	case "not_null":
		if err := requireParameter(parsed.FunctionName, params); err != nil {
			return nil, err
		}
		return NewNotNullCheck(name, params[0], opts...), nil

	case "range":
		if err := requireParameter(parsed.FunctionName, params); err != nil {
			return nil, err
		}
		lo, hi, inclusive, err := rangeBounds(parsed, !cfg.Exclusive)
		if err != nil {
			return nil, err
		}
		return NewRangeCheck(name, params[0], lo, hi, inclusive, opts...), nil

	case "domain":
		if err := requireParameter(parsed.FunctionName, params); err != nil {
			return nil, err
		}
		if parsed.Operator != dbqrules.OperatorIn {
			return nil, fmt.Errorf("domain check requires an 'in (...)' value set")
		}
		return NewDomainCheck(name, params[0], textValues(parsed.ThresholdValue), !cfg.CaseSensitive, opts...), nil

	case "pattern":
		if err := requireParameter(parsed.FunctionName, params); err != nil {
			return nil, err
		}
		if parsed.Operator != dbqrules.OperatorMatches {
			return nil, fmt.Errorf("pattern check requires the '~' operator")
		}
		re, err := regexp.Compile(fmt.Sprint(parsed.ThresholdValue))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		return NewPatternCheck(name, params[0], re, opts...), nil

	case "not_decreasing":
		if err := requireParameter(parsed.FunctionName, params); err != nil {
			return nil, err
		}
		return NewOrderedSequenceCheck(name, cfg.PartitionBy, cfg.OrderBy, params[0], opts...), nil

	case "conditional":
		if cfg.Conditional == nil {
			return nil, fmt.Errorf("conditional check requires 'when' and 'then'")
		}
		when, err := PredicateFromExpression(cfg.Conditional.ParsedWhen, !cfg.CaseSensitive)
		if err != nil {
			return nil, fmt.Errorf("when: %w", err)
		}
		then, err := PredicateFromExpression(cfg.Conditional.ParsedThen, !cfg.CaseSensitive)
		if err != nil {
			return nil, fmt.Errorf("then: %w", err)
		}
		return NewConditionalCheck(name, when, then, opts...), nil

	default:
		return nil, fmt.Errorf("unknown check function: %s", parsed.FunctionName)
	}
}

// PredicateFromExpression turns "tyre == wet" or "sensor between 100 and 250"
// into a predicate. The column is the first parameter when one is given,
// otherwise the bare function name.
func PredicateFromExpression(expr *dbqrules.CheckExpression, caseInsensitive bool) (Predicate, error) {
	if expr == nil {
		return nil, fmt.Errorf("empty predicate")
	}
	column := expr.FunctionName
	if len(expr.FunctionParameters) > 0 {
		column = expr.FunctionParameters[0]
	}

	switch expr.Operator {
	case dbqrules.OperatorBetween:
		between := expr.ThresholdValue.(dbqrules.BetweenRange)
		lo, ok := dbqrules.AsFloat(between.Min)
		if !ok {
			return nil, fmt.Errorf("non-numeric lower bound: %v", between.Min)
		}
		hi, ok := dbqrules.AsFloat(between.Max)
		if !ok {
			return nil, fmt.Errorf("non-numeric upper bound: %v", between.Max)
		}
		return Between(column, lo, hi, true), nil
	case dbqrules.OperatorIn:
		return In(column, textValues(expr.ThresholdValue), caseInsensitive), nil
	case dbqrules.OperatorMatches:
		re, err := regexp.Compile(fmt.Sprint(expr.ThresholdValue))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		return Matches(column, re), nil
	case "":
		return nil, fmt.Errorf("predicate %q has no operator", expr.FunctionName)
	default:
		return Compare(column, expr.Operator, expr.ThresholdValue, caseInsensitive)
	}
}

func requireParameter(functionName string, params []string) error {
	if len(params) == 0 {
		return fmt.Errorf("%s check requires a column parameter", functionName)
	}
	return nil
}

// rangeBounds converts "between a and b" and one-sided comparisons into bounds.
func rangeBounds(parsed *dbqrules.CheckExpression, inclusive bool) (float64, float64, bool, error) {
	if parsed.Operator == dbqrules.OperatorBetween {
		between := parsed.ThresholdValue.(dbqrules.BetweenRange)
		lo, ok := dbqrules.AsFloat(between.Min)
		if !ok {
			return 0, 0, false, fmt.Errorf("non-numeric lower bound: %v", between.Min)
		}
		hi, ok := dbqrules.AsFloat(between.Max)
		if !ok {
			return 0, 0, false, fmt.Errorf("non-numeric upper bound: %v", between.Max)
		}
		if lo > hi {
			return 0, 0, false, fmt.Errorf("lower bound %v is greater than upper bound %v", lo, hi)
		}
		return lo, hi, inclusive, nil
	}

	bound, ok := dbqrules.AsFloat(parsed.ThresholdValue)
	if !ok {
		return 0, 0, false, fmt.Errorf("non-numeric bound: %v", parsed.ThresholdValue)
	}
	switch parsed.Operator {
	case ">=":
		return bound, math.Inf(1), true, nil
	case ">":
		return bound, math.Inf(1), false, nil
	case "<=":
		return math.Inf(-1), bound, true, nil
	case "<":
		return math.Inf(-1), bound, false, nil
	default:
		return 0, 0, false, fmt.Errorf("range check does not support operator %q", parsed.Operator)
	}
}

func textValues(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := dbqrules.AsString(item)
		out = append(out, s)
	}
	return out
}
