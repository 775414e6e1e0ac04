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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNilDataset         = errors.New("dataset view is not provided")
	ErrDuplicateCheckName = errors.New("duplicate check name")
	ErrCheckCancelled     = errors.New("check cancelled before evaluation")
)

// RuleEngine is the interface that wraps the basic rule evaluation methods.
type RuleEngine interface {
	// Run evaluates every check against view and returns one result per check in
	// declaration order. A failing check never aborts its siblings.
	Run(ctx context.Context, view DatasetView, checks []Check) ([]*CheckResult, error)

	// Report runs the checks and wraps the results with dataset metadata.
	Report(ctx context.Context, view DatasetView, checks []Check) (*Report, error)
}

type EngineOption func(*RuleEngineImpl)

// WithWorkers bounds the number of checks evaluated in parallel.
func WithWorkers(n int) EngineOption {
	return func(e *RuleEngineImpl) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithSampleSize sets how many violating rows each result keeps.
func WithSampleSize(n int) EngineOption {
	return func(e *RuleEngineImpl) {
		e.aggregator = NewAggregator(n)
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *RuleEngineImpl) {
		e.now = now
	}
}

func NewRuleEngine(logger *slog.Logger, opts ...EngineOption) RuleEngine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	engine := &RuleEngineImpl{
		logger:     logger,
		workers:    runtime.GOMAXPROCS(0),
		aggregator: NewAggregator(DefaultSampleSize),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

type RuleEngineImpl struct {
	logger     *slog.Logger
	workers    int
	aggregator *Aggregator
	now        func() time.Time
}

func (e *RuleEngineImpl) Run(ctx context.Context, view DatasetView, checks []Check) ([]*CheckResult, error) {
	if view == nil {
		return nil, ErrNilDataset
	}
	if err := validateChecks(checks); err != nil {
		return nil, err
	}

	// each slot is written by exactly one task
	results := make([]*CheckResult, len(checks))
	taskPool := NewTaskPool(e.workers, e.logger)
	for i, check := range checks {
		taskPool.Enqueue(ctx, check.Name(), func() error {
			results[i] = e.runCheck(ctx, view, check)
			if results[i].Fault == FaultEvaluation {
				return errors.New(results[i].Note)
			}
			return nil
		})
	}
	taskPool.Join()

	for i, check := range checks {
		if results[i] == nil {
			e.logger.Warn("check cancelled", "check_name", check.Name())
			results[i] = e.aggregator.Aggregate(check, view, nil, ErrCheckCancelled)
		}
		observeResult(results[i])
	}

	return results, nil
}

func (e *RuleEngineImpl) Report(ctx context.Context, view DatasetView, checks []Check) (*Report, error) {
	results, err := e.Run(ctx, view, checks)
	if err != nil {
		return nil, err
	}

	return &Report{
		RunID: uuid.NewString(),
		Dataset: DatasetInfo{
			Name:        view.Name(),
			RowCount:    view.RowCount(),
			ColumnCount: len(view.Columns()),
		},
		GeneratedAt: e.now(),
		Results:     results,
	}, nil
}

func (e *RuleEngineImpl) runCheck(ctx context.Context, view DatasetView, check Check) (result *CheckResult) {
	startTime := time.Now()
	e.logger.Debug("evaluating check", "check_name", check.Name())

	defer func() {
		if r := recover(); r != nil {
			result = e.aggregator.Aggregate(check, view, nil, fmt.Errorf("panic: %v", r))
		}
		result.DurationMs = time.Since(startTime).Milliseconds()
		e.logger.Debug("check completed in time",
			"check_name", check.Name(),
			"status", result.Status,
			"violations", result.Violations,
			"duration_ms", result.DurationMs)
	}()

	set, err := check.Evaluate(ctx, view)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		err = fmt.Errorf("%w: %v", ErrCheckCancelled, err)
	}
	if err == nil && set == nil {
		set = &ViolationSet{}
	}
	return e.aggregator.Aggregate(check, view, set, err)
}

func validateChecks(checks []Check) error {
	seen := make(map[string]struct{}, len(checks))
	for i, check := range checks {
		if check == nil {
			return fmt.Errorf("check at position %d is nil", i)
		}
		if _, ok := seen[check.Name()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCheckName, check.Name())
		}
		seen[check.Name()] = struct{}{}
	}
	return nil
}
