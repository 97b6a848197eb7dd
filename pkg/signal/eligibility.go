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

package signal

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/fsm"
)

// WorkspaceStore is the minimal read surface EligibilityStage needs to
// evaluate workspace.workflowPreferences.enabledInputSources.
type WorkspaceStore interface {
	Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error)
}

// EligibilityStage is the fsm.StageHandler for domain.StateNormalized. It
// filters out signals from sources the workspace has not opted into
// before any evidence extraction is attempted. Drift-type eligibility
// (workflowPreferences.enabledDriftTypes) cannot be checked here — the drift
// type is not known until the Comparison Engine runs — so that half of the
// filter is applied in pkg/comparison's ClassifyStage.
type EligibilityStage struct {
	workspaces WorkspaceStore
	log        logr.Logger
}

func NewEligibilityStage(workspaces WorkspaceStore, log logr.Logger) *EligibilityStage {
	return &EligibilityStage{workspaces: workspaces, log: log}
}

func (s *EligibilityStage) State() domain.State { return domain.StateNormalized }

func (s *EligibilityStage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	ws, err := s.workspaces.Workspace(ctx, cand.WorkspaceID)
	if err != nil {
		return cand.State, err
	}

	if !ws.SourceEnabled(cand.SourceType) {
		s.log.V(0).Info("source not enabled for workspace, ignoring", "sourceType", cand.SourceType, "driftId", cand.ID)
		return cand.State, fsm.NewNonApplicable("source type " + string(cand.SourceType) + " not enabled for workspace")
	}

	s.log.V(1).Info("eligibility check passed", "driftId", cand.ID)
	return domain.StateEligibilityChecked, nil
}
