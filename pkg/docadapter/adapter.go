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

// Package docadapter provides the uniform fetch/write/createPR surface
// over every documentation system the pipeline can patch: wiki-style systems
// writing back directly under optimistic concurrency, and git-backed systems
// that only ever open a pull request.
package docadapter

import (
	"context"
)

// SystemKind distinguishes the two writeback strategies a document
// belongs to.
type SystemKind string

const (
	SystemConfluence SystemKind = "confluence"
	SystemNotion     SystemKind = "notion"
	SystemGitHubMD   SystemKind = "github_markdown"  // READMEs, code comments
	SystemOpenAPI    SystemKind = "openapi"
	SystemBackstage  SystemKind = "backstage_catalog"
	SystemGitBook    SystemKind = "gitbook"
)

// wikiStyle are the systems with a direct optimistic-concurrency
// writeback. Everything else is git-backed.
var wikiStyle = map[SystemKind]bool{
	SystemConfluence: true,
	SystemNotion:     true,
}

// IsWikiStyle reports whether a system supports direct writeback, as
// opposed to PR-only writeback.
func IsWikiStyle(k SystemKind) bool { return wikiStyle[k] }

// DocRef locates a single document within its system.
type DocRef struct {
	System SystemKind
	Repo   string // git-backed systems: owner/repo
	Path   string // git-backed systems: file path within the repo
	PageID string // wiki-style systems: page identifier
}

// DocFetchResult is the outcome of Adapter.Fetch.
type DocFetchResult struct {
	Content     string
	BaseRevision string
	FetchedAt   string
	URL         string
}

// WriteParams is the input to Adapter.WritePatch.
type WriteParams struct {
	Ref          DocRef
	BaseRevision string
	NewContent   string
	Summary      string
}

// WriteResult is the outcome of Adapter.WritePatch.
type WriteResult struct {
	NewRevision string
	URL         string
}

// PRParams is the input to GitAdapter.CreatePatchPR.
type PRParams struct {
	Ref         DocRef
	BaseRevision string
	NewContent  string
	Title       string
	Body        string
	BranchName  string
}

// PRResult is the outcome of GitAdapter.CreatePatchPR.
type PRResult struct {
	PRNumber int
	PRURL    string
	Branch   string
}

// Adapter is the interface every documentation system implements
// -> DocFetchResult, writePatch(params) ->
// WriteResult, supportsDirectWriteback(), getDocUrl()").
type Adapter interface {
	Fetch(ctx context.Context, ref DocRef) (*DocFetchResult, error)
	WritePatch(ctx context.Context, params WriteParams) (*WriteResult, error)
	SupportsDirectWriteback() bool
	DocURL(ref DocRef) string
}

// GitAdapter additionally exposes createPatchPR for Git-backed document
// systems.
type GitAdapter interface {
	Adapter
	CreatePatchPR(ctx context.Context, params PRParams) (*PRResult, error)
}
