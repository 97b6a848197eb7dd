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

// Package queue is the Redis-backed implementation of fsm.Queue. A delivery
// is a ready-list entry; a delayed self-enqueue (snooze expiry, backoff
// retry) lives in a sorted set scored by its due time until a reaper
// promotes it. This is one of the two backends named by QueueConfig.Backend
// — the "sqs" backend is out of scope here.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	readyListKey   = "driftcore:queue:ready"
	delayedSetKey  = "driftcore:queue:delayed"
	reaperInterval = 1 * time.Second
)

// delivery is the wire shape of one queued (workspaceId, driftId) message.
type delivery struct {
	MessageID   string `json:"messageId"`
	WorkspaceID string `json:"workspaceId"`
	DriftID     string `json:"driftId"`
}

// RedisQueue implements fsm.Queue. Enqueue never blocks on the Engine: it
// only ever writes to Redis, so a stage handler's self-enqueue is a single
// cheap round trip.
type RedisQueue struct {
	client *redis.Client
	log    logr.Logger
}

func NewRedisQueue(client *redis.Client, log logr.Logger) *RedisQueue {
	return &RedisQueue{client: client, log: log}
}

// Enqueue delivers (workspaceId, driftId) immediately if delay is zero or
// negative, otherwise schedules it onto the delayed set for a reaper to
// promote once due.
func (q *RedisQueue) Enqueue(ctx context.Context, workspaceID, driftID string, delay time.Duration) (string, error) {
	msg := delivery{MessageID: uuid.NewString(), WorkspaceID: workspaceID, DriftID: driftID}
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal delivery: %w", err)
	}

	if delay <= 0 {
		if err := q.client.LPush(ctx, readyListKey, raw).Err(); err != nil {
			return "", fmt.Errorf("push ready delivery: %w", err)
		}
		return msg.MessageID, nil
	}

	dueAt := time.Now().Add(delay)
	if err := q.client.ZAdd(ctx, delayedSetKey, redis.Z{Score: float64(dueAt.Unix()), Member: raw}).Err(); err != nil {
		return "", fmt.Errorf("schedule delayed delivery: %w", err)
	}
	return msg.MessageID, nil
}

// reap moves every delayed delivery whose due time has passed onto the
// ready list. It is safe to call concurrently from multiple processes:
// ZRem only removes the members this call actually saw, so a delivery
// promoted twice by a race is the same at-least-once duplicate the
// Engine's compare-and-swap lock already tolerates.
func (q *RedisQueue) reap(ctx context.Context) error {
	now := float64(time.Now().Unix())
	due, err := q.client.ZRangeByScore(ctx, delayedSetKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%f", now)}).Result()
	if err != nil {
		return fmt.Errorf("scan delayed deliveries: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	pipe := q.client.Pipeline()
	for _, raw := range due {
		pipe.LPush(ctx, readyListKey, raw)
		pipe.ZRem(ctx, delayedSetKey, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("promote delayed deliveries: %w", err)
	}
	return nil
}
