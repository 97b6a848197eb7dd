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

// Package docresolve picks the document a DriftCandidate's evidence
// should be compared against. Candidate documents are scored by keyword/tool
// overlap with the signal's BaselineArtifacts and tie-broken by the
// workspace's workflowPreferences.outputTargetPriority.
package docresolve

import (
	"context"
	"sort"

	"github.com/go-logr/logr"

	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/fsm"
)

// CatalogEntry is one document the workspace has registered as a
// candidate writeback target, along with the keywords the resolver
// matches it against (its own tool mentions, paths, owners — typically
// pre-indexed from the last time the document's claims were extracted).
type CatalogEntry struct {
	Ref          domain.DocRef
	ToolMentions []string
	PathMentions []string
	Keywords     []string
}

// Catalog looks up the candidate documents registered for a workspace's
// service/repo. Implementations are expected to back this with an index
// over pkg/claims extractions rather than re-fetching every document on
// every resolution.
type Catalog interface {
	Candidates(ctx context.Context, workspaceID, service, repo string) ([]CatalogEntry, error)
}

// BundleReader reads the source-side BaselineArtifacts already written
// by the Evidence Extractor (C2).
type BundleReader interface {
	Bundle(ctx context.Context, workspaceID, bundleID string) (*domain.EvidenceBundle, error)
}

// WorkspaceReader reads the workspace's outputTargetPriority tie-break
// order.
type WorkspaceReader interface {
	Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error)
}

// ResolveStage is the fsm.StageHandler for domain.StateEvidenceBuilt. It
// scores the workspace's registered candidate documents against the
// evidence bundle's source artifacts and sets DriftCandidate.DocCandidates
// to the ranked result (highest score first), along with a resolution
// confidence and status.
type ResolveStage struct {
	catalog    Catalog
	bundles    BundleReader
	workspaces WorkspaceReader
	log        logr.Logger
}

func NewResolveStage(catalog Catalog, bundles BundleReader, workspaces WorkspaceReader, log logr.Logger) *ResolveStage {
	return &ResolveStage{catalog: catalog, bundles: bundles, workspaces: workspaces, log: log}
}

func (s *ResolveStage) State() domain.State { return domain.StateEvidenceBuilt }

type scoredEntry struct {
	entry    CatalogEntry
	score    int
	priority int
}

func (s *ResolveStage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	bundle, err := s.bundles.Bundle(ctx, cand.WorkspaceID, cand.EvidenceBundleID)
	if err != nil {
		return cand.State, err
	}

	entries, err := s.catalog.Candidates(ctx, cand.WorkspaceID, cand.Service, cand.Repo)
	if err != nil {
		return cand.State, err
	}
	if len(entries) == 0 {
		return cand.State, fsm.NewNonApplicable("no candidate documents registered for service " + cand.Service)
	}

	ws, err := s.workspaces.Workspace(ctx, cand.WorkspaceID)
	if err != nil {
		return cand.State, err
	}
	priorityRank := outputPriorityRank(ws.WorkflowPreferences.OutputTargetPriority)

	tokens := sourceTokens(bundle.SourceEvidence)
	scored := make([]scoredEntry, 0, len(entries))
	for _, e := range entries {
		sc := overlapScore(tokens, e)
		if sc == 0 {
			continue
		}
		scored = append(scored, scoredEntry{entry: e, score: sc, priority: priorityRank[e.Ref.AdapterType]})
	}
	if len(scored) == 0 {
		return cand.State, fsm.NewNonApplicable("no candidate document matched the signal's artifacts")
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].priority < scored[j].priority
	})

	refs := make([]domain.DocRef, 0, len(scored))
	for _, sc := range scored {
		refs = append(refs, sc.entry.Ref)
	}

	best := scored[0]
	totalTokens := len(tokens)
	confidence := 1.0
	if totalTokens > 0 {
		confidence = float64(best.score) / float64(totalTokens)
		if confidence > 1 {
			confidence = 1
		}
	}

	cand.DocCandidates = refs
	cand.DocsResolutionConfidence = confidence
	cand.DocsResolutionStatus = "resolved"

	s.log.V(1).Info("document candidates resolved", "driftId", cand.ID, "count", len(refs), "topScore", best.score)
	return domain.StateDocsResolved, nil
}

// outputPriorityRank turns an ordered preference list into a lower-is-
// better rank map; adapter types absent from the list sort last.
func outputPriorityRank(order []string) map[string]int {
	rank := make(map[string]int, len(order))
	for i, t := range order {
		rank[t] = i
	}
	return rank
}

func sourceTokens(a domain.BaselineArtifacts) map[string]bool {
	set := make(map[string]bool)
	add := func(vals []string) {
		for _, v := range vals {
			set[v] = true
		}
	}
	add(a.Tools)
	add(a.Paths)
	add(a.Owners)
	add(a.ConfigKeys)
	add(a.Endpoints)
	add(a.Commands)
	add(a.Features)
	return set
}

func overlapScore(tokens map[string]bool, e CatalogEntry) int {
	score := 0
	count := func(vals []string) {
		for _, v := range vals {
			if tokens[v] {
				score++
			}
		}
	}
	count(e.ToolMentions)
	count(e.PathMentions)
	count(e.Keywords)
	return score
}
