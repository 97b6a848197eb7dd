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

package comparison

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/claims"
	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/domain"
)

// maxCompareFanout bounds how many of a candidate's ranked documents get
// fetched concurrently. Ranked
// candidates beyond this are only tried if every fetched one fails.
const maxCompareFanout = 3

// BundleStore reads and rewrites (by producing a new revision of) the
// EvidenceBundle a DriftCandidate points at. Bundles themselves are
// immutable once written — CompareStage writes a *new*
// bundle carrying the target evidence rather than mutating the existing
// one.
type BundleStore interface {
	Bundle(ctx context.Context, workspaceID, bundleID string) (*domain.EvidenceBundle, error)
	WriteBundle(ctx context.Context, workspaceID string, b *domain.EvidenceBundle) error
}

// CompareStage is the fsm.StageHandler for domain.StateDocsResolved. It
// fetches the resolved document, extracts its claims, diffs them against
// the bundle's source evidence, and writes a new bundle revision holding
// both sides.
type CompareStage struct {
	bundles  BundleStore
	adapters *docadapter.Registry
	budgets  claims.Budgets
	hints    KeywordHints
	log      logr.Logger

	sf singleflight.Group
}

func NewCompareStage(bundles BundleStore, adapters *docadapter.Registry, log logr.Logger) *CompareStage {
	return &CompareStage{bundles: bundles, adapters: adapters, budgets: claims.DefaultBudgets, hints: DefaultGitHubPRHints, log: log}
}

func (s *CompareStage) State() domain.State { return domain.StateDocsResolved }

// fetchResult is one ranked candidate's outcome: either a DocContext
// ready to compare, or the error that kept it from fetching.
type fetchResult struct {
	rank         int
	docCtx       claims.DocContext
	baseRevision string
	err          error
}

func (s *CompareStage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	if len(cand.DocCandidates) == 0 {
		return cand.State, drifterrors.NewValidationError("no resolved document candidate to compare against")
	}

	fanout := cand.DocCandidates
	if len(fanout) > maxCompareFanout {
		fanout = fanout[:maxCompareFanout]
	}

	results := make([]fetchResult, len(fanout))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxCompareFanout)
	for i, docRef := range fanout {
		i, docRef := i, docRef
		g.Go(func() error {
			docCtx, baseRevision, err := s.fetchAndExtract(gctx, cand.WorkspaceID, docRef)
			results[i] = fetchResult{rank: i, docCtx: docCtx, baseRevision: baseRevision, err: err}
			return nil // per-candidate failures don't abort the other fetches
		})
	}
	_ = g.Wait()

	winner := -1
	for i, r := range results {
		if r.err == nil {
			winner = i
			break
		}
	}
	if winner == -1 {
		return cand.State, results[0].err
	}

	bundle, err := s.bundles.Bundle(ctx, cand.WorkspaceID, cand.EvidenceBundleID)
	if err != nil {
		return cand.State, err
	}

	result := Compare(bundle.SourceEvidence, results[winner].docCtx.Artifacts)
	result.Confidence = AdjustConfidence(result.Confidence, bundle.SourceExcerpt, s.hints)

	next := *bundle
	next.TargetEvidence = results[winner].docCtx.Artifacts
	next.BundleID = bundle.BundleID + "-cmp"
	if err := s.bundles.WriteBundle(ctx, cand.WorkspaceID, &next); err != nil {
		return cand.State, err
	}

	cand.EvidenceBundleID = next.BundleID
	cand.ComparisonResult = &result
	cand.HasCoverageGap = result.HasCoverageGap
	cand.DocsResolutionConfidence = 1.0
	cand.ActivePlanHash = results[winner].baseRevision

	s.log.V(1).Info("comparison complete", "driftId", cand.ID, "driftType", result.DriftType,
		"confidence", result.Confidence, "candidatesFetched", len(fanout), "winnerRank", winner)
	return domain.StateCompared, nil
}

// fetchAndExtract dedupes concurrent fetches of the same document: two
// FSM workers racing on overlapping candidates (at-least-once delivery)
// can land on the same doc ref in the same instant, and there is no
// reason to pay for the fetch and claim extraction twice.
func (s *CompareStage) fetchAndExtract(ctx context.Context, workspaceID string, ref domain.DocRef) (claims.DocContext, string, error) {
	converted := docadapter.FromDomainRef(ref)
	adapter, err := s.adapters.For(converted.System)
	if err != nil {
		return claims.DocContext{}, "", err
	}

	key := fmt.Sprintf("%s/%s/%s/%s", workspaceID, converted.System, converted.Repo, converted.Path+converted.PageID)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		docCtx, baseRevision, err := claims.FetchAndExtract(ctx, adapter, converted, s.budgets)
		if err != nil {
			return nil, err
		}
		return fetchResult{docCtx: docCtx, baseRevision: baseRevision}, nil
	})
	if err != nil {
		return claims.DocContext{}, "", err
	}
	fr := v.(fetchResult)
	return fr.docCtx, fr.baseRevision, nil
}

// ClassifyStage is the fsm.StageHandler for domain.StateCompared. The
// comparison engine already determined drift type and confidence
// deterministically; this stage commits that
// classification onto the candidate. Ambiguous cases (no drift types
// fired deterministically but the source signal is still eligible) are
// escalated to an LLM-backed classifier — out of scope for this stage,
// wired via pkg/llm in the full pipeline.
type ClassifyStage struct {
	log logr.Logger
}

func NewClassifyStage(log logr.Logger) *ClassifyStage { return &ClassifyStage{log: log} }

func (s *ClassifyStage) State() domain.State { return domain.StateCompared }

func (s *ClassifyStage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	if cand.ComparisonResult == nil {
		return cand.State, drifterrors.New(drifterrors.ErrorTypeInternal, "classify stage reached with no comparison result")
	}
	if !cand.ComparisonResult.HasDrift && !cand.ComparisonResult.HasCoverageGap {
		return domain.StateIgnored, nil
	}

	cand.DriftType = cand.ComparisonResult.DriftType
	cand.Confidence = cand.ComparisonResult.Confidence
	cand.ClassificationMethod = domain.ClassificationDeterministic

	s.log.V(1).Info("classified", "driftId", cand.ID, "driftType", cand.DriftType, "confidence", cand.Confidence)
	return domain.StateClassified, nil
}
