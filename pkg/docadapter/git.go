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

package docadapter

import (
	"context"
	"fmt"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
)

// GitContentClient is the thin transport this package drives for
// Git-backed document systems (README, OpenAPI/Swagger, Backstage
// catalog, code comments, GitBook) via the Git content API. Credentials
// are obtained upstream via the opaque credential service.
type GitContentClient interface {
	GetFile(ctx context.Context, repo, path string) (content, sha, url string, err error)
	CreateBranch(ctx context.Context, repo, branchName, fromSHA string) error
	CommitFile(ctx context.Context, repo, branch, path, content, message string) (newSHA string, err error)
	OpenPullRequest(ctx context.Context, repo, branch, title, body string) (prNumber int, prURL string, err error)
}

// GitBackedAdapter implements GitAdapter for systems that never accept
// direct writeback: every patch lands as a pull request.
type GitBackedAdapter struct {
	kind   SystemKind
	client GitContentClient
}

func NewGitBackedAdapter(kind SystemKind, client GitContentClient) *GitBackedAdapter {
	return &GitBackedAdapter{kind: kind, client: client}
}

func (a *GitBackedAdapter) Fetch(ctx context.Context, ref DocRef) (*DocFetchResult, error) {
	content, sha, url, err := a.client.GetFile(ctx, ref.Repo, ref.Path)
	if err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "fetch git-backed document")
	}
	return &DocFetchResult{Content: content, BaseRevision: sha, URL: url}, nil
}

// WritePatch always fails for a Git-backed adapter: the only writeback
// path is CreatePatchPR.
func (a *GitBackedAdapter) WritePatch(ctx context.Context, params WriteParams) (*WriteResult, error) {
	return nil, drifterrors.New(drifterrors.ErrorTypeValidation,
		fmt.Sprintf("%s does not support direct writeback; use createPatchPR", a.kind))
}

func (a *GitBackedAdapter) SupportsDirectWriteback() bool { return false }

func (a *GitBackedAdapter) DocURL(ref DocRef) string { return ref.Repo + "/" + ref.Path }

// CreatePatchPR opens a branch off the document's current revision,
// commits the proposed content, and opens a pull request.
func (a *GitBackedAdapter) CreatePatchPR(ctx context.Context, params PRParams) (*PRResult, error) {
	if err := a.client.CreateBranch(ctx, params.Ref.Repo, params.BranchName, params.BaseRevision); err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "create patch branch")
	}
	if _, err := a.client.CommitFile(ctx, params.Ref.Repo, params.BranchName, params.Ref.Path, params.NewContent, params.Title); err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "commit patch content")
	}
	prNumber, prURL, err := a.client.OpenPullRequest(ctx, params.Ref.Repo, params.BranchName, params.Title, params.Body)
	if err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "open patch pull request")
	}
	return &PRResult{PRNumber: prNumber, PRURL: prURL, Branch: params.BranchName}, nil
}
