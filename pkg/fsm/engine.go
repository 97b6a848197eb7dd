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

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/metrics"
)

// backoffBase is the exponential-backoff unit for transient stage retries.
const backoffBase = 2 * time.Second

// Engine advances a single DriftCandidate by exactly one stage per
// Advance call, per the scheduling model in: a queue delivery names
// (workspaceId, driftId) and the Engine performs one transition.
type Engine struct {
	repo     Repository
	queue    Queue
	handlers map[domain.State]StageHandler
	log      logr.Logger
	now      func() time.Time
}

func NewEngine(repo Repository, queue Queue, log logr.Logger) *Engine {
	return &Engine{
		repo:     repo,
		queue:    queue,
		handlers: make(map[domain.State]StageHandler),
		log:      log,
		now:      time.Now,
	}
}

// Register binds a StageHandler to the state it handles. There is
// exactly one handler per non-terminal state.
func (e *Engine) Register(h StageHandler) {
	e.handlers[h.State()] = h
}

// Advance performs one FSM step for (workspaceID, driftID). If another
// worker is already advancing the same candidate, or the candidate is
// already terminal, Advance no-ops and returns nil.
func (e *Engine) Advance(ctx context.Context, workspaceID, driftID string) error {
	cand, release, err := e.repo.LockForAdvance(ctx, workspaceID, driftID)
	if err != nil {
		if err == ErrStaleLock {
			return nil
		}
		return err
	}
	defer release()

	if domain.IsTerminal(cand.State) {
		return nil
	}
	if cand.State == domain.StateSnoozed {
		return e.resumeIfSnoozeExpired(ctx, cand)
	}

	handler, ok := e.handlers[cand.State]
	if !ok {
		return ErrNoHandler(cand.State)
	}

	log := e.log.WithValues("workspaceId", workspaceID, "driftId", driftID, "state", cand.State)
	start := e.now()
	fromState := cand.State

	next, handleErr := handler.Handle(ctx, cand)

	audit := &domain.AuditTrail{
		ID:         uuid.NewString(),
		DriftID:    driftID,
		FromState:  fromState,
		Timestamp:  e.now(),
		DurationMs: e.now().Sub(start).Milliseconds(),
		Actor:      "system",
		Metadata:   map[string]string{},
	}

	if handleErr != nil {
		disp := classifyFailure(cand, handleErr)
		cand.State = disp.NextState
		cand.StateUpdatedAt = e.now()
		if disp.Retry {
			cand.RetryCount++
		}
		cand.LastErrorCode = disp.Code
		cand.LastErrorMessage = handleErr.Error()
		audit.ToState = disp.NextState
		audit.Metadata["errorCode"] = disp.Code

		if err := e.repo.Persist(ctx, cand, audit); err != nil {
			return err
		}
		metrics.RecordTransition(string(fromState), string(disp.NextState), e.now().Sub(start).Seconds())

		if disp.Retry {
			delay := backoffBase * time.Duration(1<<uint(cand.RetryCount))
			if _, err := e.queue.Enqueue(ctx, workspaceID, driftID, delay); err != nil {
				log.Error(err, "failed to re-enqueue transient retry")
				return err
			}
		}
		return nil
	}

	if !CanTransition(fromState, next) {
		return ErrIllegalTransition{From: fromState, To: next}
	}

	cand.State = next
	cand.StateUpdatedAt = e.now()
	if next != fromState {
		cand.RetryCount = 0
	}
	audit.ToState = next

	if err := e.repo.Persist(ctx, cand, audit); err != nil {
		return err
	}
	metrics.RecordTransition(string(fromState), string(next), e.now().Sub(start).Seconds())

	log.V(0).Info("transitioned", "to", next)

	if domain.IsTerminal(next) || next == domain.StateAwaitingHuman || next == domain.StateSnoozed {
		return nil
	}

	_, err = e.queue.Enqueue(ctx, workspaceID, driftID, 0)
	return err
}

func (e *Engine) resumeIfSnoozeExpired(ctx context.Context, cand *domain.DriftCandidate) error {
	if cand.SnoozedUntil == nil || e.now().Before(*cand.SnoozedUntil) {
		return nil
	}

	audit := &domain.AuditTrail{
		ID:        uuid.NewString(),
		DriftID:   cand.ID,
		FromState: domain.StateSnoozed,
		ToState:   domain.StateAwaitingHuman,
		Timestamp: e.now(),
		Actor:     "system",
		Metadata:  map[string]string{"reason": "snooze_expired"},
	}
	cand.State = domain.StateAwaitingHuman
	cand.StateUpdatedAt = e.now()
	cand.SnoozedUntil = nil

	return e.repo.Persist(ctx, cand, audit)
}

// Cancel administratively terminates a SNOOZED or AWAITING_HUMAN
// candidate to IGNORED.
func (e *Engine) Cancel(ctx context.Context, workspaceID, driftID, actor, reason string) error {
	cand, release, err := e.repo.LockForAdvance(ctx, workspaceID, driftID)
	if err != nil {
		return err
	}
	defer release()

	if cand.State != domain.StateSnoozed && cand.State != domain.StateAwaitingHuman {
		return ErrIllegalTransition{From: cand.State, To: domain.StateIgnored}
	}

	audit := &domain.AuditTrail{
		ID:        uuid.NewString(),
		DriftID:   driftID,
		FromState: cand.State,
		ToState:   domain.StateIgnored,
		Actor:     actor,
		Timestamp: e.now(),
		Metadata:  map[string]string{"reason": reason},
	}
	cand.State = domain.StateIgnored
	cand.StateUpdatedAt = e.now()

	return e.repo.Persist(ctx, cand, audit)
}
