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

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
)

// WikiClient is the thin transport this package drives for wiki-style
// systems (Confluence, Notion). Authentication is obtained upstream via
// the opaque credential service.
type WikiClient interface {
	GetPage(ctx context.Context, pageID string) (content, revision, url string, err error)
	UpdatePage(ctx context.Context, pageID, baseRevision, newContent string) (newRevision string, err error)
}

// WikiAdapter implements Adapter for Confluence/Notion-style systems
// with direct optimistic-concurrency writeback.
type WikiAdapter struct {
	kind   SystemKind
	client WikiClient
}

func NewWikiAdapter(kind SystemKind, client WikiClient) *WikiAdapter {
	return &WikiAdapter{kind: kind, client: client}
}

func (a *WikiAdapter) Fetch(ctx context.Context, ref DocRef) (*DocFetchResult, error) {
	content, revision, url, err := a.client.GetPage(ctx, ref.PageID)
	if err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "fetch wiki page")
	}
	return &DocFetchResult{Content: content, BaseRevision: revision, URL: url}, nil
}

// WritePatch performs the optimistic-concurrency write.
func (a *WikiAdapter) WritePatch(ctx context.Context, params WriteParams) (*WriteResult, error) {
	_, currentRevision, _, err := a.client.GetPage(ctx, params.Ref.PageID)
	if err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "fetch current revision before write")
	}
	if currentRevision != params.BaseRevision {
		return nil, drifterrors.New(drifterrors.ErrorTypeConflict,
			"wiki page revision changed since resolution").WithDetails(params.Ref.PageID)
	}

	newRevision, err := a.client.UpdatePage(ctx, params.Ref.PageID, params.BaseRevision, params.NewContent)
	if err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "update wiki page")
	}
	return &WriteResult{NewRevision: newRevision}, nil
}

func (a *WikiAdapter) SupportsDirectWriteback() bool { return true }

func (a *WikiAdapter) DocURL(ref DocRef) string { return ref.PageID }
