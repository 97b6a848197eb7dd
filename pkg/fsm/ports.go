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

package fsm

import (
	"context"
	"time"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// Repository is the transactional store the Engine advances candidates
// through. LockForAdvance performs the compare-and-swap the concurrency
// model requires: it must fail (ErrStaleLock) if the
// candidate's state or stateUpdatedAt no longer matches what the caller
// observed, so two workers racing on the same (workspaceId, driftId)
// never both advance it.
type Repository interface {
	Load(ctx context.Context, workspaceID, driftID string) (*domain.DriftCandidate, error)
	// LockForAdvance acquires the per-candidate advisory lock and returns
	// the freshest row.
	LockForAdvance(ctx context.Context, workspaceID, driftID string) (*domain.DriftCandidate, func(), error)
	// Persist atomically writes the candidate's new state/fields and the
	// accompanying AuditTrail row in one transaction.
	Persist(ctx context.Context, cand *domain.DriftCandidate, audit *domain.AuditTrail) error
	// HasIdempotencyKey reports whether a side effect for this key has
	// already been performed.
	HasIdempotencyKey(ctx context.Context, key string) (bool, error)
	RecordIdempotencyKey(ctx context.Context, key string) error
}

// Queue is the outbound self-enqueue surface.
type Queue interface {
	Enqueue(ctx context.Context, workspaceID, driftID string, delay time.Duration) (string, error)
}

// StageHandler performs the pure-ish work of one non-terminal state: a
// function from (DriftCandidate, stage-specific context) to (newState,
// sideEffects). It mutates cand in place (new fields set by this stage)
// and returns the next state, or an error to be classified by the
// failure policy.
type StageHandler interface {
	State() domain.State
	Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error)
}
