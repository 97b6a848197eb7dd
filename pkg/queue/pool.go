/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// brpopTimeout bounds each worker's blocking pop so it periodically
// re-checks ctx.Done() instead of blocking past shutdown.
const brpopTimeout = 2 * time.Second

// Advancer is the one fsm.Engine method a worker needs. Defined locally
// (rather than importing pkg/fsm) so pkg/queue stays a leaf the Engine's
// own package can depend on without a cycle.
type Advancer interface {
	Advance(ctx context.Context, workspaceID, driftID string) error
}

// WorkerPool is a pool of cooperative workers driven by an external
// queue: Concurrency workers each BRPOP the ready list and invoke the
// Engine for exactly one FSM step, plus one reaper goroutine promoting due
// delayed deliveries. All run under one errgroup.Group so a worker's
// unrecoverable error (e.g. a lost Redis connection) cancels its siblings
// and Run returns that error.
type WorkerPool struct {
	queue       *RedisQueue
	engine      Advancer
	concurrency int
	log         logr.Logger
}

func NewWorkerPool(q *RedisQueue, engine Advancer, concurrency int, log logr.Logger) *WorkerPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &WorkerPool{queue: q, engine: engine, concurrency: concurrency, log: log}
}

// Run blocks until ctx is cancelled or a worker returns a non-context
// error. Callers typically run it for the lifetime of the process.
func (p *WorkerPool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < p.concurrency; i++ {
		workerID := i
		g.Go(func() error { return p.runWorker(gctx, workerID) })
	}
	g.Go(func() error { return p.runReaper(gctx) })

	return g.Wait()
}

func (p *WorkerPool) runWorker(ctx context.Context, workerID int) error {
	log := p.log.WithValues("worker", workerID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := p.queue.client.BRPop(ctx, brpopTimeout, readyListKey).Result()
		if err == redis.Nil {
			continue // timed out with nothing ready, loop back to the ctx check
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error(err, "brpop failed")
			continue
		}

		// result is [listKey, payload]
		var msg delivery
		if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
			log.Error(err, "dropping malformed delivery", "payload", result[1])
			continue
		}

		if err := p.engine.Advance(ctx, msg.WorkspaceID, msg.DriftID); err != nil {
			log.Error(err, "advance failed", "workspaceId", msg.WorkspaceID, "driftId", msg.DriftID)
		}
	}
}

func (p *WorkerPool) runReaper(ctx context.Context) error {
	ticker := time.NewTicker(reaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.queue.reap(ctx); err != nil {
				p.log.Error(err, "reap failed")
			}
		}
	}
}
