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
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadChecksFileConfig(t *testing.T) {
	tests := []struct {
		name     string
		yamlData string
		expected *ChecksFileConfig
		wantErr  bool
	}{
		{
			name: "scalar and mapping checks",
			yamlData: `
version: 1
dataset:
  key: [event_id, session, car_no, lap]
checks:
  - required_columns(event_id, lap)
  - range(air_temp_c) between 0 and 30:
      name: air_temp_c_in_0_30
      desc: ambient temperature in celsius
      on_fail: warn
      display: [event_id, lap, air_temp_c]
`,
			expected: &ChecksFileConfig{
				Version: "1",
				Dataset: DatasetConfig{Key: []string{"event_id", "session", "car_no", "lap"}},
				Checks: []DataQualityCheck{
					{
						Expression: "required_columns(event_id, lap)",
						ParsedCheck: &CheckExpression{
							FunctionName:       "required_columns",
							FunctionParameters: []string{"event_id", "lap"},
							Scope:              ScopeSchema,
						},
					},
					{
						Expression:  "range(air_temp_c) between 0 and 30",
						Name:        "air_temp_c_in_0_30",
						Description: "ambient temperature in celsius",
						OnFail:      OnFailActionWarn,
						Display:     []string{"event_id", "lap", "air_temp_c"},
						ParsedCheck: &CheckExpression{
							FunctionName:       "range",
							FunctionParameters: []string{"air_temp_c"},
							Scope:              ScopeColumn,
							Operator:           OperatorBetween,
							ThresholdValue:     BetweenRange{Min: 0, Max: 30},
						},
					},
				},
			},
		},
		{
			name: "sequence and conditional checks",
			yamlData: `
version: 1
checks:
  - not_decreasing(timestamp_ms):
      partition_by: [event_id, session, car_no]
      order_by: lap
  - conditional:
      name: if_wet
      when: tyre == wet
      then: sensor_0008_val between 100 and 250
`,
			expected: &ChecksFileConfig{
				Version: "1",
				Checks: []DataQualityCheck{
					{
						Expression:  "not_decreasing(timestamp_ms)",
						PartitionBy: []string{"event_id", "session", "car_no"},
						OrderBy:     "lap",
						ParsedCheck: &CheckExpression{
							FunctionName:       "not_decreasing",
							FunctionParameters: []string{"timestamp_ms"},
							Scope:              ScopeSequence,
						},
					},
					{
						Expression: "conditional",
						Name:       "if_wet",
						Conditional: &ConditionalConfig{
							When: "tyre == wet",
							Then: "sensor_0008_val between 100 and 250",
							ParsedWhen: &CheckExpression{
								FunctionName:       "tyre",
								FunctionParameters: []string{},
								Scope:              ScopeColumn,
								Operator:           "==",
								ThresholdValue:     "wet",
							},
							ParsedThen: &CheckExpression{
								FunctionName:       "sensor_0008_val",
								FunctionParameters: []string{},
								Scope:              ScopeColumn,
								Operator:           OperatorBetween,
								ThresholdValue:     BetweenRange{Min: 100, Max: 250},
							},
						},
						ParsedCheck: &CheckExpression{
							FunctionName:       "conditional",
							FunctionParameters: []string{},
							Scope:              ScopeRow,
						},
					},
				},
			},
		},
		{
			name: "conditional without then",
			yamlData: `
checks:
  - conditional:
      when: tyre == wet
`,
			wantErr: true,
		},
		{
			name: "invalid expression",
			yamlData: `
checks:
  - "range(lap) => 3"
`,
			wantErr: true,
		},
		{
			name: "sequence node as check",
			yamlData: `
checks:
  - [a, b]
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "checks.yaml")
			if err := os.WriteFile(path, []byte(tt.yamlData), 0o644); err != nil {
				t.Fatalf("failed to write checks file: %v", err)
			}

			cfg, err := LoadChecksFileConfig(path)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadChecksFileConfig() unexpected error: %v", err)
			}

			if cfg.Version != tt.expected.Version {
				t.Errorf("Version = %q, expected %q", cfg.Version, tt.expected.Version)
			}
			if !reflect.DeepEqual(cfg.Dataset, tt.expected.Dataset) {
				t.Errorf("Dataset = %+v, expected %+v", cfg.Dataset, tt.expected.Dataset)
			}
			if len(cfg.Checks) != len(tt.expected.Checks) {
				t.Fatalf("got %d checks, expected %d", len(cfg.Checks), len(tt.expected.Checks))
			}
			for i := range cfg.Checks {
				if !reflect.DeepEqual(cfg.Checks[i], tt.expected.Checks[i]) {
					t.Errorf("check %d: got %+v, expected %+v", i, cfg.Checks[i], tt.expected.Checks[i])
				}
			}
		})
	}
}

func TestLoadChecksFileConfig_MissingFile(t *testing.T) {
	if _, err := LoadChecksFileConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDataQualityCheck_CheckName(t *testing.T) {
	var config struct {
		Checks []DataQualityCheck `yaml:"checks"`
	}
	data := `
checks:
  - not_null(driver)
  - not_null(team):
      name: team_present
`
	if err := yaml.Unmarshal([]byte(data), &config); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	expected := []string{"not_null(driver)", "team_present"}
	for i, check := range config.Checks {
		if got := check.CheckName(); got != expected[i] {
			t.Errorf("CheckName() = %q, expected %q", got, expected[i])
		}
	}
}
