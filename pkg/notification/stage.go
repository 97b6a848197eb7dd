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

package notification

import (
	"context"

	"github.com/go-logr/logr"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
)

// ProposalStore is the narrow read/write surface the notify stage needs
// on the PatchProposal record.
type ProposalStore interface {
	ProposalForDrift(ctx context.Context, driftID string) (*domain.PatchProposal, error)
	RecordSlackMessage(ctx context.Context, proposalID, channelID, timestamp string) error
}

// AutoApprover reports whether a candidate's confidence already clears
// the workspace's autoApprove threshold, skipping AWAITING_HUMAN entirely.
type AutoApprover interface {
	AutoApproveThreshold(ctx context.Context, workspaceID string) (float64, error)
}

// Stage is the fsm.StageHandler for domain.StatePatchProposed. It posts
// the patch proposal to the routed channel/DM, records the Slack message
// coordinates for later in-place updates, and advances to AWAITING_HUMAN.
// The FSM has no direct PATCH_PROPOSED -> APPLIED edge, so
// a candidate whose confidence already clears the workspace's
// auto-approve threshold still passes through AWAITING_HUMAN — skipping
// only the Slack post — and the caller driving the Engine is expected to
// immediately invoke pkg/writeback's Approve with actor "auto-approve"
// once Advance returns that state.
type Stage struct {
	proposals ProposalStore
	approvers AutoApprover
	sink      Sink
	log       logr.Logger
}

func NewStage(proposals ProposalStore, approvers AutoApprover, sink Sink, log logr.Logger) *Stage {
	return &Stage{proposals: proposals, approvers: approvers, sink: sink, log: log}
}

func (s *Stage) State() domain.State { return domain.StatePatchProposed }

func (s *Stage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	proposal, err := s.proposals.ProposalForDrift(ctx, cand.ID)
	if err != nil {
		return cand.State, drifterrors.NewDatabaseError("load_proposal", err)
	}

	threshold, err := s.approvers.AutoApproveThreshold(ctx, cand.WorkspaceID)
	if err != nil {
		return cand.State, err
	}
	if threshold > 0 && cand.Confidence >= threshold && (cand.RoutingDecision == nil || cand.RoutingDecision.Reason != "block_merge") {
		s.log.V(1).Info("auto-approving above threshold", "driftId", cand.ID, "confidence", cand.Confidence, "threshold", threshold)
		return domain.StateAwaitingHuman, nil
	}

	channel := "digest"
	if cand.RoutingDecision != nil {
		channel = cand.RoutingDecision.Channel
	}
	body := RenderProposalPost(cand.ID, string(proposal.Style), proposal.ProposedContent)

	result, err := s.sink.Post(ctx, Post{Channel: channel, Text: body})
	if err != nil {
		return cand.State, err
	}
	if err := s.proposals.RecordSlackMessage(ctx, proposal.ID, result.ChannelID, result.Timestamp); err != nil {
		return cand.State, drifterrors.NewDatabaseError("record_slack_message", err)
	}

	return domain.StateAwaitingHuman, nil
}
