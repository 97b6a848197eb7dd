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

package adapter

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/driftsentry/driftcore/pkg/health"
	"github.com/driftsentry/driftcore/pkg/llm"
)

// LLMClient decorates an llm.Client with a circuit breaker, the same
// protection every document adapter gets, so a degraded model provider
// surfaces in the weekly digest rather than stalling every PatchPlanned
// candidate silently.
type LLMClient struct {
	inner llm.Client
	cb    *gobreaker.CircuitBreaker
}

func NewLLMClient(name string, inner llm.Client, registry *health.Registry) *LLMClient {
	return &LLMClient{inner: inner, cb: gobreaker.NewCircuitBreaker(defaultSettings(name, registry))}
}

func (c *LLMClient) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.inner.Generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*llm.Response), nil
}

var _ llm.Client = (*LLMClient)(nil)
