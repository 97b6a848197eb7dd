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

package evidence

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
)

// Writer persists a newly produced EvidenceBundle. Bundles are
// append-only.
type Writer interface {
	WriteBundle(ctx context.Context, workspaceID string, b *domain.EvidenceBundle) error
	SignalEvent(ctx context.Context, workspaceID, signalEventID string) (*domain.SignalEvent, error)
}

// BuildStage is the fsm.StageHandler for domain.StateNormalized,
// producing the source-side half of the evidence bundle.
// The target-side half (from pkg/claims) is attached later, once a
// document has been resolved (domain.StateDocsResolved).
type BuildStage struct {
	store Writer
	log   logr.Logger
}

func NewBuildStage(store Writer, log logr.Logger) *BuildStage {
	return &BuildStage{store: store, log: log}
}

func (s *BuildStage) State() domain.State { return domain.StateEligibilityChecked }

func (s *BuildStage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	evt, err := s.store.SignalEvent(ctx, cand.WorkspaceID, cand.SignalEventID)
	if err != nil {
		return cand.State, err
	}

	artifacts, excerpt, err := extractFromEvent(evt)
	if err != nil {
		return cand.State, err
	}

	bundle := &domain.EvidenceBundle{
		BundleID:         uuid.NewString(),
		DriftCandidateID: cand.ID,
		SourceEvidence:   artifacts,
		SourceExcerpt:    excerpt,
		SchemaVersion:    1,
	}

	if err := s.store.WriteBundle(ctx, cand.WorkspaceID, bundle); err != nil {
		return cand.State, err
	}

	cand.EvidenceBundleID = bundle.BundleID
	s.log.V(1).Info("evidence bundle built", "bundleId", bundle.BundleID, "driftId", cand.ID)
	return domain.StateEvidenceBuilt, nil
}

func extractFromEvent(evt *domain.SignalEvent) (domain.BaselineArtifacts, string, error) {
	switch evt.SourceType {
	case domain.SourceGitHubPR, domain.SourceGitHubIaC, domain.SourceGitHubCodeowners:
		if evt.Extracted.GitHubPR == nil {
			return domain.BaselineArtifacts{}, "", drifterrors.NewValidationError("missing githubPR payload for evidence extraction")
		}
		return ExtractFromGitHubPR(evt.Extracted.GitHubPR), evt.Extracted.GitHubPR.Diff, nil
	case domain.SourcePagerDutyIncident:
		if evt.Extracted.PagerDutyIncident == nil {
			return domain.BaselineArtifacts{}, "", drifterrors.NewValidationError("missing pagerDutyIncident payload for evidence extraction")
		}
		return ExtractFromIncident(evt.Extracted.PagerDutyIncident), "", nil
	case domain.SourceSlackCluster:
		if evt.Extracted.SlackCluster == nil {
			return domain.BaselineArtifacts{}, "", drifterrors.NewValidationError("missing slackCluster payload for evidence extraction")
		}
		return ExtractFromSlackCluster(evt.Extracted.SlackCluster), "", nil
	case domain.SourceDatadogAlert:
		if evt.Extracted.DatadogAlert == nil {
			return domain.BaselineArtifacts{}, "", drifterrors.NewValidationError("missing datadogAlert payload for evidence extraction")
		}
		return ExtractFromMonitoringAlert(evt.Extracted.DatadogAlert), "", nil
	default:
		return domain.BaselineArtifacts{}, "", drifterrors.NewValidationError("unsupported source type for evidence extraction: " + string(evt.SourceType))
	}
}
