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

package patch

import (
	"context"
	"strconv"

	"github.com/go-logr/logr"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/claims"
	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/fsm"
)

// ProposalWriter persists the generated PatchProposal.
type ProposalWriter interface {
	CreateProposal(ctx context.Context, p *domain.PatchProposal) error
}

// GenerateStage is the fsm.StageHandler for domain.StatePatchPlanned. It
// fetches the target document, extracts claims, runs the generator
// against the bounded DocContext, and attaches the resulting
// PatchProposal in ProposalPending status. A block_merge
// routing decision still gets a proposal: scenario 5 requires it attached
// even though merge is blocked.
type GenerateStage struct {
	adapters  *docadapter.Registry
	generator *Generator
	proposals ProposalWriter
	budgets   claims.Budgets
	log       logr.Logger
}

func NewGenerateStage(adapters *docadapter.Registry, generator *Generator, proposals ProposalWriter, log logr.Logger) *GenerateStage {
	return &GenerateStage{adapters: adapters, generator: generator, proposals: proposals, budgets: claims.DefaultBudgets, log: log}
}

func (s *GenerateStage) State() domain.State { return domain.StatePatchPlanned }

func (s *GenerateStage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	if len(cand.DocCandidates) == 0 {
		return cand.State, fsm.NewNonApplicable("no resolved document candidate to generate a patch against")
	}
	ref := cand.DocCandidates[0]
	adapterRef := docadapter.FromDomainRef(ref)

	adapter, err := s.adapters.For(adapterRef.System)
	if err != nil {
		return cand.State, drifterrors.Wrap(err, drifterrors.ErrorTypeValidation, "no adapter registered for target system")
	}

	fetched, err := adapter.Fetch(ctx, adapterRef)
	if err != nil {
		return cand.State, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "failed to fetch target document")
	}

	docCtx := claims.Extract(fetched.Content, s.budgets)
	region := docadapter.FindManagedRegion(fetched.Content)
	style := domain.StyleAddNote
	if cand.ComparisonResult != nil && cand.ComparisonResult.Recommendation != "" {
		style = cand.ComparisonResult.Recommendation
	}

	result, err := s.generator.Generate(ctx, string(style), docCtx, fetched.Content, region, s.budgets)
	if err != nil {
		return cand.State, drifterrors.Wrap(err, drifterrors.ErrorTypeInternal, "patch generation failed validation after retries").WithCode("PATCH_VALIDATION_FAILED")
	}

	proposal := &domain.PatchProposal{
		ID:              cand.ID + "-v" + strconv.Itoa(cand.ActivePlanVersion),
		DriftID:         cand.ID,
		DocRef:          ref,
		BaseRevision:    fetched.BaseRevision,
		ProposedContent: result.ProposedContent,
		Style:           style,
		Confidence:      cand.Confidence,
		Status:          domain.ProposalPending,
	}
	if cand.RoutingDecision != nil && cand.RoutingDecision.Reason == "block_merge" {
		proposal.FindingsAttached = []string{"block_merge"}
	}

	if err := s.proposals.CreateProposal(ctx, proposal); err != nil {
		return cand.State, drifterrors.NewDatabaseError("create_proposal", err)
	}

	s.log.V(1).Info("patch proposed", "driftId", cand.ID, "style", style, "attempts", result.Attempts)
	return domain.StatePatchProposed, nil
}
