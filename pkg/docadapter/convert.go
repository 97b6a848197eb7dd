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

import "github.com/driftsentry/driftcore/pkg/domain"

// adapterTypeToSystemKind maps the persistence-facing
// domain.DocRef.AdapterType string to this package's SystemKind.
var adapterTypeToSystemKind = map[string]SystemKind{
	"confluence":  SystemConfluence,
	"notion":      SystemNotion,
	"readme":      SystemGitHubMD,
	"codecomment": SystemGitHubMD,
	"swagger":     SystemOpenAPI,
	"backstage":   SystemBackstage,
	"gitbook":     SystemGitBook,
}

// FromDomainRef converts a persisted domain.DocRef into this package's
// adapter-facing DocRef.
func FromDomainRef(d domain.DocRef) DocRef {
	return DocRef{
		System: adapterTypeToSystemKind[d.AdapterType],
		Repo:   d.Repo,
		Path:   d.Path,
		PageID: d.ExternalID,
	}
}
