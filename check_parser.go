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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type CheckScope string

const (
	ScopeSchema   CheckScope = "schema"
	ScopeColumn   CheckScope = "column"
	ScopeGroup    CheckScope = "group"
	ScopeSequence CheckScope = "sequence"
	ScopeRow      CheckScope = "row"
)

// Operators accepted in check expressions.
const (
	OperatorBetween = "between"
	OperatorIn      = "in"
	OperatorMatches = "~"
)

type BetweenRange struct {
	Min interface{}
	Max interface{}
}

type CheckExpression struct {
	FunctionName       string
	FunctionParameters []string
	Scope              CheckScope
	Operator           string
	ThresholdValue     interface{}
}

var (
	schemaScopeFunctions = map[string]bool{
		"required_columns": true,
	}

	groupScopeFunctions = map[string]bool{
		"uniqueness": true,
	}

	sequenceScopeFunctions = map[string]bool{
		"not_decreasing": true,
	}

	rowScopeFunctions = map[string]bool{
		"conditional": true,
	}

	comparisonOperators = map[string]bool{
		"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true, OperatorMatches: true,
	}

	betweenRegex      = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?\s+between\s+(.+)\s+and\s+(.+)$`)
	inRegex           = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?\s+in\s+\((.*)\)$`)
	operatorRegex     = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?\s*([<>=!~]+)\s*(.+)$`)
	functionOnlyRegex = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?$`)
)

// ParseCheckExpression parses expressions such as
//
//	range(air_temp_c) between 0 and 30
//	domain(tyre) in (Soft, Medium, Hard)
//	pattern(timestamp_ms) ~ ^\d{13}$
//	uniqueness(event_id, lap)
//	tyre == wet
func ParseCheckExpression(expression string) (*CheckExpression, error) {
	expression = strings.TrimSpace(expression)

	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}

	check := &CheckExpression{
		FunctionParameters: []string{},
	}

	if matches := betweenRegex.FindStringSubmatch(expression); matches != nil {
		check.FunctionName = matches[1]
		check.Operator = OperatorBetween

		if matches[2] != "" {
			check.FunctionParameters = parseParameters(matches[2])
		}

		minVal, err := parseValue(strings.TrimSpace(matches[3]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse min value: %v", err)
		}

		maxVal, err := parseValue(strings.TrimSpace(matches[4]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse max value: %v", err)
		}

		check.ThresholdValue = BetweenRange{Min: minVal, Max: maxVal}

	} else if matches := inRegex.FindStringSubmatch(expression); matches != nil {
		check.FunctionName = matches[1]
		check.Operator = OperatorIn

		if matches[2] != "" {
			check.FunctionParameters = parseParameters(matches[2])
		}

		var values []interface{}
		for _, raw := range parseParameters(matches[3]) {
			val, err := parseValue(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse set member: %v", err)
			}
			values = append(values, val)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("empty value set: %s", expression)
		}
		check.ThresholdValue = values

	} else if matches := operatorRegex.FindStringSubmatch(expression); matches != nil {
		check.FunctionName = matches[1]
		check.Operator = matches[3]

		if !comparisonOperators[check.Operator] {
			return nil, fmt.Errorf("unsupported operator %q in: %s", check.Operator, expression)
		}

		if matches[2] != "" {
			check.FunctionParameters = parseParameters(matches[2])
		}

		raw := strings.TrimSpace(matches[4])
		if check.Operator == OperatorMatches {
			// patterns are kept verbatim
			if _, err := regexp.Compile(raw); err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %v", raw, err)
			}
			check.ThresholdValue = raw
		} else {
			val, err := parseValue(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse threshold value: %v", err)
			}
			check.ThresholdValue = val
		}

	} else if matches := functionOnlyRegex.FindStringSubmatch(expression); matches != nil {
		check.FunctionName = matches[1]
		check.Operator = ""

		if matches[2] != "" {
			check.FunctionParameters = parseParameters(matches[2])
		}

	} else {
		return nil, fmt.Errorf("invalid expression format: %s", expression)
	}

	check.Scope = inferScope(check.FunctionName)

	return check, nil
}

func parseParameters(paramStr string) []string {
	if strings.TrimSpace(paramStr) == "" {
		return []string{}
	}

	params := strings.Split(paramStr, ",")
	for i, param := range params {
		params[i] = strings.TrimSpace(param)
	}

	return params
}

func parseValue(valueStr string) (interface{}, error) {
	valueStr = strings.TrimSpace(valueStr)

	if valueStr == "" {
		return nil, fmt.Errorf("empty value")
	}

	if unquoted, ok := unquote(valueStr); ok {
		return unquoted, nil
	}

	if strings.Contains(valueStr, ".") {
		if floatVal, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return floatVal, nil
		}
	}

	if intVal, err := strconv.Atoi(valueStr); err == nil {
		return intVal, nil
	}

	return valueStr, nil
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func inferScope(functionName string) CheckScope {
	if schemaScopeFunctions[functionName] {
		return ScopeSchema
	}

	if groupScopeFunctions[functionName] {
		return ScopeGroup
	}

	if sequenceScopeFunctions[functionName] {
		return ScopeSequence
	}

	if rowScopeFunctions[functionName] {
		return ScopeRow
	}

	return ScopeColumn
}
