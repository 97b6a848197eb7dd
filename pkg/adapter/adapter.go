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

// Package adapter decorates document adapters and the LLM client with a
// circuit breaker per external dependency, reporting state transitions into
// pkg/health so the weekly digest can name which dependency caused a
// deferral instead of retrying a dead one forever.
package adapter

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/health"
)

// defaultSettings trips after 5 consecutive failures and half-opens
// after a minute, a conservative default for adapters that are retried
// sparingly (writeback attempts are already capped at
// pkg/writeback.maxWritebackAttempts).
func defaultSettings(name string, registry *health.Registry) gobreaker.Settings {
	registry.Seed(name)
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: registry.Record,
	}
}

// Adapter decorates a docadapter.Adapter's Fetch/WritePatch calls with a
// named circuit breaker.
type Adapter struct {
	name  string
	inner docadapter.Adapter
	cb    *gobreaker.CircuitBreaker
}

func NewAdapter(name string, inner docadapter.Adapter, registry *health.Registry) *Adapter {
	return &Adapter{name: name, inner: inner, cb: gobreaker.NewCircuitBreaker(defaultSettings(name, registry))}
}

func (a *Adapter) Fetch(ctx context.Context, ref docadapter.DocRef) (*docadapter.DocFetchResult, error) {
	result, err := a.cb.Execute(func() (interface{}, error) {
		return a.inner.Fetch(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return result.(*docadapter.DocFetchResult), nil
}

func (a *Adapter) WritePatch(ctx context.Context, params docadapter.WriteParams) (*docadapter.WriteResult, error) {
	result, err := a.cb.Execute(func() (interface{}, error) {
		return a.inner.WritePatch(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	return result.(*docadapter.WriteResult), nil
}

func (a *Adapter) SupportsDirectWriteback() bool { return a.inner.SupportsDirectWriteback() }
func (a *Adapter) DocURL(ref docadapter.DocRef) string { return a.inner.DocURL(ref) }

var _ docadapter.Adapter = (*Adapter)(nil)

// GitAdapter decorates a docadapter.GitAdapter, sharing the breaker its
// embedded Adapter already opened so CreatePatchPR counts toward the
// same failure budget as Fetch/WritePatch.
type GitAdapter struct {
	*Adapter
	inner docadapter.GitAdapter
}

func NewGitAdapter(name string, inner docadapter.GitAdapter, registry *health.Registry) *GitAdapter {
	return &GitAdapter{
		Adapter: &Adapter{name: name, inner: inner, cb: gobreaker.NewCircuitBreaker(defaultSettings(name, registry))},
		inner:   inner,
	}
}

func (a *GitAdapter) CreatePatchPR(ctx context.Context, params docadapter.PRParams) (*docadapter.PRResult, error) {
	result, err := a.cb.Execute(func() (interface{}, error) {
		return a.inner.CreatePatchPR(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	return result.(*docadapter.PRResult), nil
}

var _ docadapter.GitAdapter = (*GitAdapter)(nil)
