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

package writeback

import (
	"context"
	"time"

	"github.com/google/uuid"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/fsm"
	"github.com/driftsentry/driftcore/pkg/routing"
)

// Reject records a human rejection of a patch proposal. It
// feeds the rejection into the suppression escalation ladder (C8) so that
// repeated rejections of the same drift shape eventually get suppressed
// outright, and updates the out-of-band Slack message in place.
func (e *Executor) Reject(ctx context.Context, workspaceID, driftID, actor, reason string, tags []string) error {
	cand, release, err := e.repo.LockForAdvance(ctx, workspaceID, driftID)
	if err != nil {
		return err
	}
	defer release()

	if cand.State != domain.StateAwaitingHuman {
		return fsm.ErrIllegalTransition{From: cand.State, To: domain.StateRejected}
	}

	proposal, err := e.proposals.ProposalForDrift(ctx, driftID)
	if err != nil {
		return drifterrors.NewDatabaseError("load_proposal", err)
	}

	proposal.Status = domain.ProposalRejected
	proposal.RejectionReason = reason
	proposal.RejectionTags = tags
	proposal.ResolvedBy = actor
	resolvedAt := e.now()
	proposal.ResolvedAt = &resolvedAt
	if err := e.proposals.UpdateProposal(ctx, proposal); err != nil {
		return drifterrors.NewDatabaseError("update_proposal", err)
	}

	fp := domain.Fingerprints{Strict: cand.FingerprintStrict, Medium: cand.FingerprintMedium, Broad: cand.FingerprintBroad}
	if err := routing.RecordRejection(ctx, e.suppressions, workspaceID, fp, reason, actor); err != nil {
		return err
	}

	audit := &domain.AuditTrail{
		ID: uuid.NewString(), DriftID: driftID, FromState: domain.StateAwaitingHuman,
		ToState: domain.StateRejected, Actor: actor, Timestamp: e.now(),
		Metadata: map[string]string{"reason": reason},
	}
	cand.State = domain.StateRejected
	cand.StateUpdatedAt = e.now()
	if err := e.repo.Persist(ctx, cand, audit); err != nil {
		return err
	}

	if proposal.SlackChannelID != "" {
		_ = e.sink.Update(ctx, proposal.SlackChannelID, proposal.SlackMessageTS, "Rejected by "+actor+": "+reason)
	}
	return nil
}

// Snooze suspends an AWAITING_HUMAN candidate until a later time. The
// candidate re-enters AWAITING_HUMAN once until elapses (fsm.transitions:
// SNOOZED -> AWAITING_HUMAN).
func (e *Executor) Snooze(ctx context.Context, workspaceID, driftID, actor string, until time.Time) error {
	cand, release, err := e.repo.LockForAdvance(ctx, workspaceID, driftID)
	if err != nil {
		return err
	}
	defer release()

	if cand.State != domain.StateAwaitingHuman {
		return fsm.ErrIllegalTransition{From: cand.State, To: domain.StateSnoozed}
	}

	audit := &domain.AuditTrail{
		ID: uuid.NewString(), DriftID: driftID, FromState: domain.StateAwaitingHuman,
		ToState: domain.StateSnoozed, Actor: actor, Timestamp: e.now(),
		Metadata: map[string]string{"until": until.Format(time.RFC3339)},
	}
	cand.State = domain.StateSnoozed
	cand.StateUpdatedAt = e.now()
	cand.SnoozedUntil = &until
	if err := e.repo.Persist(ctx, cand, audit); err != nil {
		return err
	}

	proposal, err := e.proposals.ProposalForDrift(ctx, driftID)
	if err == nil && proposal.SlackChannelID != "" {
		_ = e.sink.Update(ctx, proposal.SlackChannelID, proposal.SlackMessageTS, "Snoozed by "+actor+" until "+until.Format(time.RFC3339))
	}
	return nil
}
