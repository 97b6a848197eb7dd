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

package repository

import (
	"context"
	"path/filepath"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/policy"
)

type policyPackRow struct {
	Document []byte `db:"document"`
}

// ApplicablePacks loads every pack scoped to the workspace and filters to
// those whose repos PathSet matches repo, reusing the same filepath.Match
// the evaluator's own trigger matching already relies on
// (pkg/policy/evaluate.go).
func (r *Repository) ApplicablePacks(ctx context.Context, workspaceID, service, repo string) ([]*policy.Pack, error) {
	var rows []policyPackRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT document FROM policy_packs
		WHERE workspace_id=$1 AND ($2 = '*' OR service_glob = '*' OR service_glob = $2)
		  AND ($3 = '*' OR repo_glob = '*' OR repo_glob = $3)`, workspaceID, service, repo)
	if err != nil {
		return nil, drifterrors.NewDatabaseError("applicable_packs", err)
	}

	packs := make([]*policy.Pack, 0, len(rows))
	for _, row := range rows {
		var pack policy.Pack
		if err := unmarshalInto(row.Document, &pack); err != nil {
			return nil, err
		}
		if !repoInScope(pack.Scope, repo) {
			continue
		}
		packs = append(packs, &pack)
	}
	return packs, nil
}

func repoInScope(scope policy.Scope, repo string) bool {
	if len(scope.Repos.Include) == 0 {
		return true
	}
	for _, pattern := range scope.Repos.Exclude {
		if ok, _ := filepath.Match(pattern, repo); ok {
			return false
		}
	}
	for _, pattern := range scope.Repos.Include {
		if ok, _ := filepath.Match(pattern, repo); ok {
			return true
		}
	}
	return false
}

// ContextFor assembles the EvalContext a PolicyPack evaluates against,
// pulling the PR-shaped facts (changed files, diff, approvals) from the
// signal event that produced the candidate when its source is a GitHub
// pull request.
func (r *Repository) ContextFor(ctx context.Context, cand *domain.DriftCandidate) (policy.EvalContext, error) {
	evalCtx := policy.EvalContext{Workspace: cand.WorkspaceID, Repo: cand.Repo}

	ev, err := r.SignalEvent(ctx, cand.WorkspaceID, cand.SignalEventID)
	if err != nil {
		return evalCtx, err
	}
	if ev.Extracted.GitHubPR == nil {
		return evalCtx, nil
	}

	pr := ev.Extracted.GitHubPR
	evalCtx.Actor = pr.Author
	evalCtx.Diff = pr.Diff
	evalCtx.PRBody = pr.Body
	evalCtx.ChangedFiles = make([]string, 0, len(pr.ChangedFiles))
	for _, f := range pr.ChangedFiles {
		evalCtx.ChangedFiles = append(evalCtx.ChangedFiles, f.Path)
	}
	return evalCtx, nil
}
