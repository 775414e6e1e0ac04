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
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// TaskPool runs tasks with bounded parallelism. Tasks still waiting for a slot
// when the context is done are skipped.
type TaskPool struct {
	semaphore chan struct{}
	logger    *slog.Logger
	wg        sync.WaitGroup
	mu        sync.Mutex
	errors    []error
}

func NewTaskPool(poolSize int, logger *slog.Logger) *TaskPool {
	if logger == nil {
		// noop logger by default
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if poolSize < 1 {
		poolSize = 1
	}

	return &TaskPool{
		semaphore: make(chan struct{}, poolSize),
		logger:    logger,
	}
}

func (tp *TaskPool) Enqueue(ctx context.Context, id string, task func() error) {
	tp.wg.Add(1)
	go func() {
		defer tp.wg.Done()

		select {
		case tp.semaphore <- struct{}{}:
		case <-ctx.Done():
			tp.skip(id, ctx.Err())
			return
		}
		defer func() { <-tp.semaphore }()

		// both select cases may be ready at once
		if err := ctx.Err(); err != nil {
			tp.skip(id, err)
			return
		}

		tp.logger.Debug("executing task", "task_id", id)
		exeStartTime := time.Now()
		if err := task(); err != nil {
			tp.logger.Error("task failed", "task_id", id, "error", err.Error())
			tp.addError(err)
		}
		elapsed := time.Since(exeStartTime).Milliseconds()
		tp.logger.Debug("completed task", "task_id", id, "elapsed_ms", elapsed)
	}()
}

func (tp *TaskPool) skip(id string, cause error) {
	tp.logger.Warn("task skipped", "task_id", id, "error", cause.Error())
	tp.addError(fmt.Errorf("task %s not started: %w", id, cause))
}

func (tp *TaskPool) addError(err error) {
	tp.mu.Lock()
	tp.errors = append(tp.errors, err)
	tp.mu.Unlock()
}

func (tp *TaskPool) Join() {
	tp.wg.Wait()
}

func (tp *TaskPool) Errors() []error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	errsCopy := make([]error, len(tp.errors))
	copy(errsCopy, tp.errors)
	return errsCopy
}
