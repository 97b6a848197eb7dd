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

package policy

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// PackStore resolves the PolicyPacks applicable to a candidate's
// workspace/service/repo scope.
type PackStore interface {
	ApplicablePacks(ctx context.Context, workspaceID, service, repo string) ([]*Pack, error)
	ContextFor(ctx context.Context, cand *domain.DriftCandidate) (EvalContext, error)
}

// Stage is the fsm.StageHandler for domain.StateClassified. It resolves
// every applicable PolicyPack, evaluates obligations, merges findings
// across packs, and freezes activePlanHash so later pack edits never
// mutate an in-flight candidate's decision.
type Stage struct {
	packs     PackStore
	evaluator *Evaluator
	log       logr.Logger
}

func NewStage(packs PackStore, evaluator *Evaluator, log logr.Logger) *Stage {
	return &Stage{packs: packs, evaluator: evaluator, log: log}
}

func (s *Stage) State() domain.State { return domain.StateClassified }

func (s *Stage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	packs, err := s.packs.ApplicablePacks(ctx, cand.WorkspaceID, cand.Service, cand.Repo)
	if err != nil {
		return cand.State, err
	}
	if len(packs) == 0 {
		cand.ActivePlanHash = ""
		return domain.StatePolicyEvaluated, nil
	}

	evalCtx, err := s.packs.ContextFor(ctx, cand)
	if err != nil {
		return cand.State, err
	}

	allFindings := make([][]Finding, len(packs))
	for i, p := range packs {
		findings, err := s.evaluator.Evaluate(p, evalCtx)
		if err != nil {
			return cand.State, err
		}
		allFindings[i] = findings
	}

	merged := Merge(packs, allFindings)

	cand.ActivePlanHash = combinedHash(packs)
	if blocksMerge(merged.Findings) {
		cand.RoutingDecision = &domain.RoutingDecision{Reason: "block_merge"}
	}

	s.log.V(1).Info("policy evaluated", "driftId", cand.ID, "packs", len(packs), "findings", len(merged.Findings), "conflicts", len(merged.Conflicts))
	return domain.StatePolicyEvaluated, nil
}

func blocksMerge(findings []Finding) bool {
	for _, f := range findings {
		if f.Decision == DecisionBlock {
			return true
		}
	}
	return false
}

// combinedHash concatenates every applicable pack's VersionHash so
// activePlanHash reflects the exact multi-pack resolution in effect at
// evaluation time.
func combinedHash(packs []*Pack) string {
	hash := ""
	for _, p := range packs {
		hash += p.VersionHash
	}
	return hash
}
