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

// Package battery ships the racing telemetry rule set as an embedded checks file.
package battery

import (
	_ "embed"
	"fmt"

	"github.com/DataBridgeTech/dbqrules"
	"github.com/DataBridgeTech/dbqrules/checks"
)

//go:embed racing.yaml
var racingYAML []byte

// YAML returns a copy of the embedded checks file.
func YAML() []byte {
	return append([]byte(nil), racingYAML...)
}

func Config() (*dbqrules.ChecksFileConfig, error) {
	cfg, err := dbqrules.ParseChecksFileConfig(racingYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded battery: %w", err)
	}
	return cfg, nil
}

// Default builds the racing checks in their declared order.
func Default() ([]dbqrules.Check, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	return checks.FromConfig(cfg)
}
