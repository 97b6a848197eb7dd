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

// Package ratelimit backs pkg/routing.RateLimiter with a Redis fixed
// window counter per workspace.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

// Limiter counts notifications per workspace within a rolling window key,
// keyed and expired the same way the gateway's dedup/storm keys are
// (one Redis key per window, TTL set on first write).
type Limiter struct {
	client *redis.Client
	log    logr.Logger
}

func New(client *redis.Client, log logr.Logger) *Limiter {
	return &Limiter{client: client, log: log}
}

// Allow increments the workspace's counter for the current window and
// reports whether it is still at or under max. The first increment in a
// window sets the key's TTL so the counter resets when the window rolls.
func (l *Limiter) Allow(ctx context.Context, workspaceID string, window time.Duration, max int) (bool, error) {
	key := fmt.Sprintf("ratecap:%s", workspaceID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incr rate cap counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			l.log.Error(err, "failed to set rate cap ttl", "workspaceId", workspaceID)
		}
	}
	return count <= int64(max), nil
}
