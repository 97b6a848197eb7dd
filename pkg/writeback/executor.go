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

// Package writeback implements the human-action surface (C12):
// Approve/Reject/Snooze on an AWAITING_HUMAN candidate, and the writeback
// executor that applies an approved patch under optimistic concurrency,
// regenerating on conflict.
package writeback

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/claims"
	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/fsm"
	"github.com/driftsentry/driftcore/pkg/notification"
	"github.com/driftsentry/driftcore/pkg/patch"
	"github.com/driftsentry/driftcore/pkg/routing"
)

// maxWritebackAttempts bounds the optimistic-concurrency
// regenerate-and-retry loop.
const maxWritebackAttempts = 3

// ProposalStore is the PatchProposal read/write surface the executor and
// human actions need.
type ProposalStore interface {
	ProposalForDrift(ctx context.Context, driftID string) (*domain.PatchProposal, error)
	UpdateProposal(ctx context.Context, p *domain.PatchProposal) error
}

// Executor drives human actions on an AWAITING_HUMAN candidate and the
// writeback that follows an approval.
type Executor struct {
	repo         fsm.Repository
	proposals    ProposalStore
	adapters     *docadapter.Registry
	generator    *patch.Generator
	suppressions routing.SuppressionStore
	sink         notification.Sink
	budgets      claims.Budgets
	log          logr.Logger
	now          func() time.Time
}

func NewExecutor(repo fsm.Repository, proposals ProposalStore, adapters *docadapter.Registry, generator *patch.Generator, suppressions routing.SuppressionStore, sink notification.Sink, log logr.Logger) *Executor {
	return &Executor{
		repo: repo, proposals: proposals, adapters: adapters, generator: generator,
		suppressions: suppressions, sink: sink, budgets: claims.DefaultBudgets, log: log, now: time.Now,
	}
}

// Approve runs the writeback executor for a human-approved (or
// auto-approved) candidate. It locks the candidate the
// same way fsm.Engine.Cancel does, applies the patch with
// optimistic-concurrency retry, and records the terminal APPLIED state
// plus the appended "applied" AuditTrail row.
func (e *Executor) Approve(ctx context.Context, workspaceID, driftID, actor string) error {
	cand, release, err := e.repo.LockForAdvance(ctx, workspaceID, driftID)
	if err != nil {
		return err
	}
	defer release()

	if cand.State != domain.StateAwaitingHuman {
		return fsm.ErrIllegalTransition{From: cand.State, To: domain.StateApplied}
	}

	proposal, err := e.proposals.ProposalForDrift(ctx, driftID)
	if err != nil {
		return drifterrors.NewDatabaseError("load_proposal", err)
	}

	if err := e.applyWithRetry(ctx, cand, proposal); err != nil {
		return err
	}

	proposal.Status = domain.ProposalApplied
	resolvedAt := e.now()
	proposal.ResolvedAt = &resolvedAt
	proposal.ResolvedBy = actor
	if err := e.proposals.UpdateProposal(ctx, proposal); err != nil {
		return drifterrors.NewDatabaseError("update_proposal", err)
	}

	audit := &domain.AuditTrail{
		ID: uuid.NewString(), DriftID: driftID, FromState: domain.StateAwaitingHuman,
		ToState: domain.StateApplied, Actor: actor, Timestamp: e.now(),
		Metadata: map[string]string{"revision": proposal.BaseRevision},
	}
	cand.State = domain.StateApplied
	cand.StateUpdatedAt = e.now()
	if err := e.repo.Persist(ctx, cand, audit); err != nil {
		return err
	}

	if proposal.SlackChannelID != "" {
		_ = e.sink.Update(ctx, proposal.SlackChannelID, proposal.SlackMessageTS, "Patch applied by "+actor)
	}
	return nil
}

// applyWithRetry writes the proposal's content to its target document,
// regenerating the patch against a freshly-fetched DocContext whenever
// the adapter reports an optimistic-concurrency conflict.
func (e *Executor) applyWithRetry(ctx context.Context, cand *domain.DriftCandidate, proposal *domain.PatchProposal) error {
	ref := docadapter.FromDomainRef(proposal.DocRef)
	adapter, err := e.adapters.For(ref.System)
	if err != nil {
		return drifterrors.Wrap(err, drifterrors.ErrorTypeValidation, "no adapter registered for target system")
	}

	content := proposal.ProposedContent
	baseRevision := proposal.BaseRevision

	for attempt := 1; attempt <= maxWritebackAttempts; attempt++ {
		if docadapter.IsWikiStyle(ref.System) {
			result, err := adapter.WritePatch(ctx, docadapter.WriteParams{
				Ref: ref, BaseRevision: baseRevision, NewContent: content, Summary: string(proposal.Style),
			})
			if err == nil {
				proposal.BaseRevision = result.NewRevision
				return nil
			}
			if !drifterrors.IsType(err, drifterrors.ErrorTypeConflict) {
				return drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "writeback failed")
			}
		} else {
			gitAdapter, ok := adapter.(docadapter.GitAdapter)
			if !ok {
				return drifterrors.New(drifterrors.ErrorTypeInternal, "git-backed system kind without a GitAdapter")
			}
			result, err := gitAdapter.CreatePatchPR(ctx, docadapter.PRParams{
				Ref: ref, BaseRevision: baseRevision, NewContent: content,
				Title: "docs: " + string(proposal.Style), Body: proposal.ProposedContent, BranchName: "drift/" + cand.ID,
			})
			if err == nil {
				proposal.BaseRevision = result.PRURL
				return nil
			}
			if !drifterrors.IsType(err, drifterrors.ErrorTypeConflict) {
				return drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "writeback PR creation failed")
			}
		}

		cand.RetryCount++
		fetched, err := adapter.Fetch(ctx, ref)
		if err != nil {
			return drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "refetch after writeback conflict failed")
		}
		baseRevision = fetched.BaseRevision
		docCtx := claims.Extract(fetched.Content, e.budgets)
		region := docadapter.FindManagedRegion(fetched.Content)

		regenerated, err := e.generator.Generate(ctx, string(proposal.Style), docCtx, fetched.Content, region, e.budgets)
		if err != nil {
			return drifterrors.Wrap(err, drifterrors.ErrorTypeValidation, "regeneration after writeback conflict failed").WithCode("PATCH_VALIDATION_FAILED")
		}
		content = regenerated.ProposedContent
		e.log.V(1).Info("writeback conflict, regenerated", "attempt", attempt, "driftId", cand.ID)
	}

	return drifterrors.New(drifterrors.ErrorTypeConflict, "writeback conflict persisted after retries")
}
