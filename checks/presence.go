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
	"strings"

	"github.com/DataBridgeTech/dbqrules"
)

// PresenceCheck verifies that required columns exist. It never scans rows; a
// missing column yields a single synthetic violation.
type PresenceCheck struct {
	base
	required []string
}

func NewPresenceCheck(name string, required []string, opts ...Option) *PresenceCheck {
	return &PresenceCheck{
		base:     newBase(name, []string{}, opts),
		required: required,
	}
}

func (c *PresenceCheck) Columns() []string {
	return c.required
}

func (c *PresenceCheck) Evaluate(_ context.Context, view dbqrules.DatasetView) (*dbqrules.ViolationSet, error) {
	missing := dbqrules.MissingColumns(view, c.required...)
	if len(missing) == 0 {
		return &dbqrules.ViolationSet{Note: "All present"}, nil
	}

	return &dbqrules.ViolationSet{
		Violations: []dbqrules.Violation{{Row: dbqrules.SyntheticRow}},
		Note:       "Missing: " + strings.Join(missing, ", "),
	}, nil
}
