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

// Package checks provides the concrete check variants evaluated by the rule engine.
package checks

import (
	"context"

	"github.com/DataBridgeTech/dbqrules"
)

// cancelPollInterval is how many rows a scan processes between context checks.
const cancelPollInterval = 4096

// Option configures the metadata shared by all checks.
type Option func(*base)

func WithDescription(desc string) Option {
	return func(b *base) {
		b.desc = desc
	}
}

func WithOnFail(action dbqrules.OnFailAction) Option {
	return func(b *base) {
		b.onFail = action
	}
}

// WithDisplay sets the sample columns. Empty keeps the check default.
func WithDisplay(columns ...string) Option {
	return func(b *base) {
		if len(columns) > 0 {
			b.display = columns
		}
	}
}

type base struct {
	name    string
	desc    string
	onFail  dbqrules.OnFailAction
	display []string
}

func newBase(name string, defaultDisplay []string, opts []Option) base {
	b := base{name: name, display: defaultDisplay}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Description() string {
	return b.desc
}

func (b *base) OnFail() dbqrules.OnFailAction {
	return b.onFail
}

func (b *base) DisplayColumns() []string {
	return b.display
}

func pollCancel(ctx context.Context, i int) error {
	if i%cancelPollInterval == 0 {
		return ctx.Err()
	}
	return nil
}

// valueFault classifies a value that could not be coerced to a number.
func valueFault(v any) string {
	if v == nil {
		return dbqrules.NoteNull
	}
	return dbqrules.NoteUnparseable
}

func columnsOf(view dbqrules.DatasetView, names []string) [][]any {
	cols := make([][]any, len(names))
	for i, name := range names {
		cols[i], _ = view.Column(name)
	}
	return cols
}
