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

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/docresolve"
	"github.com/driftsentry/driftcore/pkg/domain"
)

type catalogEntryRow struct {
	DocRef       []byte `db:"doc_ref"`
	ToolMentions []byte `db:"tool_mentions"`
	PathMentions []byte `db:"path_mentions"`
	Keywords     []byte `db:"keywords"`
}

// Candidates satisfies pkg/docresolve.Catalog, backing it with the
// workspace's registered document index instead of a live
// re-fetch of every known document on every resolution.
func (r *Repository) Candidates(ctx context.Context, workspaceID, service, repo string) ([]docresolve.CatalogEntry, error) {
	var rows []catalogEntryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT doc_ref, tool_mentions, path_mentions, keywords
		FROM doc_catalog_entries WHERE workspace_id=$1 AND service=$2 AND repo=$3`, workspaceID, service, repo)
	if err != nil {
		return nil, drifterrors.NewDatabaseError("catalog_candidates", err)
	}

	entries := make([]docresolve.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		var entry docresolve.CatalogEntry
		var ref domain.DocRef
		if err := unmarshalInto(row.DocRef, &ref); err != nil {
			return nil, err
		}
		entry.Ref = ref
		if err := unmarshalInto(row.ToolMentions, &entry.ToolMentions); err != nil {
			return nil, err
		}
		if err := unmarshalInto(row.PathMentions, &entry.PathMentions); err != nil {
			return nil, err
		}
		if err := unmarshalInto(row.Keywords, &entry.Keywords); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
