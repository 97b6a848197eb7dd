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

// Package health tracks the circuit state of every external dependency
// pkg/adapter wraps (document adapters, the LLM client) so the weekly
// digest can report "N drifts deferred due to GitHub being degraded"
// instead of silently retrying forever. Each dependency's breaker state
// is tracked under its own name, built on sony/gobreaker's state machine
// rather than a hand-rolled one.
package health

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Status is a point-in-time read of one dependency's circuit state.
type Status struct {
	Name        string
	State       gobreaker.State
	SinceChange time.Time
}

// Degraded reports whether this dependency is currently refusing calls.
func (s Status) Degraded() bool {
	return s.State != gobreaker.StateClosed
}

// Registry collects the current state of every named dependency breaker.
// It is populated via OnStateChange hooks registered on each
// gobreaker.CircuitBreaker at construction time (see pkg/adapter).
type Registry struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

func NewRegistry() *Registry {
	return &Registry{statuses: make(map[string]Status)}
}

// Record is the gobreaker.Settings.OnStateChange callback shape; wire it
// directly as `OnStateChange: registry.Record`.
func (r *Registry) Record(name string, from, to gobreaker.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[name] = Status{Name: name, State: to, SinceChange: time.Now()}
}

// Seed registers a dependency as closed before it has ever tripped, so
// Snapshot reports every known dependency, not just ones that failed.
func (r *Registry) Seed(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.statuses[name]; !ok {
		r.statuses[name] = Status{Name: name, State: gobreaker.StateClosed, SinceChange: time.Now()}
	}
}

// Snapshot returns every tracked dependency's current status.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, s)
	}
	return out
}

// Degraded returns only the dependencies currently open or half-open,
// the set the weekly digest reports as deferred causes.
func (r *Registry) Degraded() []Status {
	all := r.Snapshot()
	out := make([]Status, 0, len(all))
	for _, s := range all {
		if s.Degraded() {
			out = append(out, s)
		}
	}
	return out
}
