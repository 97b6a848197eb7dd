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

	"github.com/go-logr/logr"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/fsm"
)

// PlanWriter persists the chosen plan onto the candidate.
type PlanWriter interface {
	NextPlanVersion(ctx context.Context, workspaceID, driftID string) (int, error)
}

// PlanStage is the fsm.StageHandler for domain.StateRouted. It picks the
// best-ranked resolved doc candidate, derives a PatchStyle from the
// planner decision table, and hands off to PATCH_PLANNED. A candidate
// already routed block_merge still gets a plan: the
// proposal is attached with the blocking findings rather than skipped.
type PlanStage struct {
	plans PlanWriter
	log   logr.Logger
}

func NewPlanStage(plans PlanWriter, log logr.Logger) *PlanStage {
	return &PlanStage{plans: plans, log: log}
}

func (s *PlanStage) State() domain.State { return domain.StateRouted }

func (s *PlanStage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	if len(cand.DocCandidates) == 0 {
		return cand.State, fsm.NewNonApplicable("no resolved document candidate to plan a patch against")
	}
	target := cand.DocCandidates[0]
	system := docadapter.FromDomainRef(target).System

	style := PickStyle(cand.DriftType, cand.SourceType, cand.Confidence, system)

	version, err := s.plans.NextPlanVersion(ctx, cand.WorkspaceID, cand.ID)
	if err != nil {
		return cand.State, drifterrors.NewDatabaseError("next_plan_version", err)
	}
	cand.ActivePlanVersion = version
	cand.ActivePlanID = cand.ID

	if cand.ComparisonResult != nil {
		cand.ComparisonResult.Recommendation = style
	}

	s.log.V(1).Info("patch planned", "driftId", cand.ID, "style", style, "system", system, "docPath", target.Path)
	return domain.StatePatchPlanned, nil
}
