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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPool_RunsAllTasks(t *testing.T) {
	pool := NewTaskPool(3, nil)

	var (
		running, peak atomic.Int32
		done          atomic.Int32
	)
	for i := 0; i < 12; i++ {
		pool.Enqueue(context.Background(), "task", func() error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			running.Add(-1)
			done.Add(1)
			return nil
		})
	}
	pool.Join()

	assert.Equal(t, int32(12), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Empty(t, pool.Errors())
}

func TestTaskPool_CollectsErrors(t *testing.T) {
	pool := NewTaskPool(0, nil)
	boom := errors.New("boom")

	pool.Enqueue(context.Background(), "ok", func() error { return nil })
	pool.Enqueue(context.Background(), "failing", func() error { return boom })
	pool.Join()

	errs := pool.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}

func TestTaskPool_SkipsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewTaskPool(2, nil)
	var ran atomic.Bool
	pool.Enqueue(ctx, "lap_check", func() error {
		ran.Store(true)
		return nil
	})
	pool.Join()

	assert.False(t, ran.Load())
	errs := pool.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.Contains(t, errs[0].Error(), "task lap_check not started")
}
