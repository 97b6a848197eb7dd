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
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// ExtractOpenAPI parses an OpenAPI/Swagger document and produces a
// DocContext whose claimed BaselineArtifacts.Endpoints lists every
// declared operation as "METHOD /path", instead of the heading-based
// extraction Extract does for prose documents. A README documenting an
// API surface drifts when its endpoint list no longer matches the spec
// backing it; this gives the Comparison Engine something structural to
// diff rather than guessing from markdown headings.
func ExtractOpenAPI(content string, budgets Budgets) (DocContext, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(content))
	if err != nil {
		return DocContext{}, err
	}

	var endpoints []string
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			endpoints = append(endpoints, method+" "+path)
		}
	}
	sort.Strings(endpoints)

	outline := make([]string, len(endpoints))
	copy(outline, endpoints)
	if len(outline) > budgets.MaxSections {
		outline = outline[:budgets.MaxSections]
	}

	normalized := normalizeFulltext(content)
	return DocContext{
		Outline: outline,
		Artifacts: domain.BaselineArtifacts{
			Endpoints: endpoints,
			Versions:  openAPIVersions(doc),
		},
		NormalizedFulltextSha256: sha256Hex(normalized),
		Truncated:                len(endpoints) > budgets.MaxSections,
	}, nil
}

func openAPIVersions(doc *openapi3.T) []string {
	if doc.Info == nil || strings.TrimSpace(doc.Info.Version) == "" {
		return nil
	}
	return []string{doc.Info.Version}
}
