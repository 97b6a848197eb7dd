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

package claims

import (
	"context"

	"github.com/driftsentry/driftcore/pkg/docadapter"
)

// FetchAndExtract fetches a document through its adapter and runs it
// through Extract, returning the bounded DocContext plus the adapter's
// reported base revision (needed later for optimistic-concurrency
// writeback).
func FetchAndExtract(ctx context.Context, adapter docadapter.Adapter, ref docadapter.DocRef, budgets Budgets) (DocContext, string, error) {
	fetched, err := adapter.Fetch(ctx, ref)
	if err != nil {
		return DocContext{}, "", err
	}

	if ref.System == docadapter.SystemOpenAPI {
		if docCtx, err := ExtractOpenAPI(fetched.Content, budgets); err == nil {
			return docCtx, fetched.BaseRevision, nil
		}
		// Not every file under an "openapi" doc ref is the spec itself
		// (READMEs alongside it are common); fall back to prose extraction.
	}
	return Extract(fetched.Content, budgets), fetched.BaseRevision, nil
}
