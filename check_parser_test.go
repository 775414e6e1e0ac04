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
	"reflect"
	"testing"
)

func TestParseCheckExpression(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		expected    *CheckExpression
		expectError bool
	}{
		{
			name:       "range between integers",
			expression: "range(air_temp_c) between 0 and 30",
			expected: &CheckExpression{
				FunctionName:       "range",
				FunctionParameters: []string{"air_temp_c"},
				Scope:              ScopeColumn,
				Operator:           OperatorBetween,
				ThresholdValue:     BetweenRange{Min: 0, Max: 30},
			},
		},
		{
			name:       "range between negative and float",
			expression: "range(battery_soc) between -0.5 and 40",
			expected: &CheckExpression{
				FunctionName:       "range",
				FunctionParameters: []string{"battery_soc"},
				Scope:              ScopeColumn,
				Operator:           OperatorBetween,
				ThresholdValue:     BetweenRange{Min: -0.5, Max: 40},
			},
		},
		{
			name:       "one sided range",
			expression: "range(fuel_kg) >= 0",
			expected: &CheckExpression{
				FunctionName:       "range",
				FunctionParameters: []string{"fuel_kg"},
				Scope:              ScopeColumn,
				Operator:           ">=",
				ThresholdValue:     0,
			},
		},
		{
			name:       "domain with value set",
			expression: "domain(tyre) in (Soft, Medium, 'Hard', \"Wet\")",
			expected: &CheckExpression{
				FunctionName:       "domain",
				FunctionParameters: []string{"tyre"},
				Scope:              ScopeColumn,
				Operator:           OperatorIn,
				ThresholdValue:     []interface{}{"Soft", "Medium", "Hard", "Wet"},
			},
		},
		{
			name:       "pattern kept verbatim",
			expression: `pattern(timestamp_ms) ~ ^\d{13}$`,
			expected: &CheckExpression{
				FunctionName:       "pattern",
				FunctionParameters: []string{"timestamp_ms"},
				Scope:              ScopeColumn,
				Operator:           OperatorMatches,
				ThresholdValue:     `^\d{13}$`,
			},
		},
		{
			name:       "uniqueness over several columns",
			expression: "uniqueness(event_id, session, car_no, lap)",
			expected: &CheckExpression{
				FunctionName:       "uniqueness",
				FunctionParameters: []string{"event_id", "session", "car_no", "lap"},
				Scope:              ScopeGroup,
				Operator:           "",
				ThresholdValue:     nil,
			},
		},
		{
			name:       "required columns",
			expression: "required_columns(event_id, lap)",
			expected: &CheckExpression{
				FunctionName:       "required_columns",
				FunctionParameters: []string{"event_id", "lap"},
				Scope:              ScopeSchema,
				Operator:           "",
				ThresholdValue:     nil,
			},
		},
		{
			name:       "not decreasing",
			expression: "not_decreasing(lap)",
			expected: &CheckExpression{
				FunctionName:       "not_decreasing",
				FunctionParameters: []string{"lap"},
				Scope:              ScopeSequence,
				Operator:           "",
				ThresholdValue:     nil,
			},
		},
		{
			name:       "bare identifier predicate",
			expression: "tyre == wet",
			expected: &CheckExpression{
				FunctionName:       "tyre",
				FunctionParameters: []string{},
				Scope:              ScopeColumn,
				Operator:           "==",
				ThresholdValue:     "wet",
			},
		},
		{
			name:       "bare identifier between",
			expression: "sensor_0008_val between 100 and 250",
			expected: &CheckExpression{
				FunctionName:       "sensor_0008_val",
				FunctionParameters: []string{},
				Scope:              ScopeColumn,
				Operator:           OperatorBetween,
				ThresholdValue:     BetweenRange{Min: 100, Max: 250},
			},
		},
		{
			name:       "whitespace is trimmed",
			expression: "   not_null(driver)   ",
			expected: &CheckExpression{
				FunctionName:       "not_null",
				FunctionParameters: []string{"driver"},
				Scope:              ScopeColumn,
				Operator:           "",
				ThresholdValue:     nil,
			},
		},
		{
			name:        "empty expression",
			expression:  "",
			expectError: true,
		},
		{
			name:        "unsupported operator",
			expression:  "range(lap) => 3",
			expectError: true,
		},
		{
			name:        "invalid pattern",
			expression:  "pattern(driver) ~ ([A-Z]",
			expectError: true,
		},
		{
			name:        "empty value set",
			expression:  "domain(tyre) in ()",
			expectError: true,
		},
		{
			name:        "garbage",
			expression:  "!!!",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseCheckExpression(tt.expression)

			if tt.expectError {
				if err == nil {
					t.Errorf("ParseCheckExpression() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("ParseCheckExpression() unexpected error: %v", err)
				return
			}

			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParseCheckExpression() = %+v, expected %+v", result, tt.expected)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected interface{}
		wantErr  bool
	}{
		{input: "42", expected: 42},
		{input: "-20", expected: -20},
		{input: "0.6", expected: 0.6},
		{input: "'007'", expected: "007"},
		{input: "\"wet\"", expected: "wet"},
		{input: "wet", expected: "wet"},
		{input: "1.2.3", expected: "1.2.3"},
		{input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := parseValue(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseValue(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseValue(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("parseValue(%q) = %#v, expected %#v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestInferScope(t *testing.T) {
	tests := []struct {
		functionName string
		expected     CheckScope
	}{
		{functionName: "required_columns", expected: ScopeSchema},
		{functionName: "uniqueness", expected: ScopeGroup},
		{functionName: "not_decreasing", expected: ScopeSequence},
		{functionName: "conditional", expected: ScopeRow},
		{functionName: "range", expected: ScopeColumn},
		{functionName: "unknown_func", expected: ScopeColumn},
	}

	for _, tt := range tests {
		t.Run(tt.functionName, func(t *testing.T) {
			if result := inferScope(tt.functionName); result != tt.expected {
				t.Errorf("inferScope() = %v, expected %v", result, tt.expected)
			}
		})
	}
}
