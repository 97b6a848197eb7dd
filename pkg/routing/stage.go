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

package routing

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/fsm"
)

// WorkspaceReader resolves the thresholds and owner routing needed to
// decide a candidate's notification priority.
type WorkspaceReader interface {
	Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error)
	OwnerSlackID(ctx context.Context, workspaceID, ownerRef string) (string, error)
}

// SignalStore supplies the recent signals the Signal Joiner correlates
// against.
type SignalStore interface {
	Anchor(ctx context.Context, signalEventID string) (domain.SignalEvent, error)
	Recent(ctx context.Context, workspaceID, service string, window time.Duration) ([]domain.SignalEvent, error)
}

// Stage is the fsm.StageHandler for domain.StatePolicyEvaluated. It
// fingerprints the candidate, checks learned suppression, joins
// correlated signals for a confidence boost, and decides the routing
// priority. A policy block_merge decision set upstream
// (pkg/policy.Stage) is left untouched: the candidate still needs a
// patch proposal attached to it.
type Stage struct {
	workspaces   WorkspaceReader
	signals      SignalStore
	suppressions SuppressionStore
	limiter      RateLimiter
	log          logr.Logger
}

func NewStage(workspaces WorkspaceReader, signals SignalStore, suppressions SuppressionStore, limiter RateLimiter, log logr.Logger) *Stage {
	return &Stage{workspaces: workspaces, signals: signals, suppressions: suppressions, limiter: limiter, log: log}
}

func (s *Stage) State() domain.State { return domain.StatePolicyEvaluated }

func (s *Stage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	tokens := fingerprintTokens(cand)
	fp := Compute(cand.SourceType, cand.Service, cand.DriftType, tokens)
	cand.FingerprintStrict, cand.FingerprintMedium, cand.FingerprintBroad = fp.Strict, fp.Medium, fp.Broad

	rule, err := CheckSuppressed(ctx, s.suppressions, cand.WorkspaceID, fp)
	if err != nil {
		return cand.State, err
	}
	if rule != nil {
		s.log.V(1).Info("candidate suppressed", "driftId", cand.ID, "level", rule.Level, "ruleId", rule.ID)
		return domain.StateIgnored, nil
	}

	if cand.RoutingDecision != nil && cand.RoutingDecision.Reason == "block_merge" {
		return domain.StateRouted, nil
	}

	confidence := cand.Confidence
	if anchor, err := s.signals.Anchor(ctx, cand.SignalEventID); err == nil {
		if others, err := s.signals.Recent(ctx, cand.WorkspaceID, cand.Service, DefaultJoinWindow); err == nil {
			join := Join(anchor, others, DefaultJoinWindow)
			confidence += join.ConfidenceBoost
			if confidence > 1 {
				confidence = 1
			}
			cand.CorrelatedSignals = join.CorrelatedSignals
		}
	}
	cand.Confidence = confidence

	ws, err := s.workspaces.Workspace(ctx, cand.WorkspaceID)
	if err != nil {
		return cand.State, err
	}
	ownerSlackID, _ := s.workspaces.OwnerSlackID(ctx, cand.WorkspaceID, cand.OwnerResolution)

	decision := Decide(Input{
		Confidence:      confidence,
		OwnerSlackID:    ownerSlackID,
		TargetDomain:    cand.Service,
		HighThreshold:   ws.HighConfidenceThreshold,
		MediumThreshold: ws.MediumConfidenceThreshold,
	})
	decision, err = ApplyRateCap(ctx, s.limiter, cand.WorkspaceID, decision)
	if err != nil {
		return cand.State, err
	}
	cand.RoutingDecision = &decision

	s.log.V(1).Info("routed", "driftId", cand.ID, "priority", decision.Priority, "channel", decision.Channel)
	return domain.StateRouted, nil
}

// fingerprintTokens collects the comparable tokens that feed the
// fingerprint computation from whatever evidence the candidate already
// carries.
func fingerprintTokens(cand *domain.DriftCandidate) []string {
	var toks []string
	if cand.ComparisonResult != nil {
		toks = append(toks, cand.ComparisonResult.NewContent...)
		toks = append(toks, cand.ComparisonResult.Conflicts...)
	}
	toks = append(toks, cand.Service, cand.Repo)
	return toks
}

var _ fsm.StageHandler = (*Stage)(nil)
