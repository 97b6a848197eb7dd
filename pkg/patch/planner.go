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

// Package patch implements the patch planner and generator (C11): picking a
// PatchStyle from a (driftType, source, confidence) decision table,
// constraining it to the target system's allowed style set, and driving the
// LLM-backed generator that turns a bounded DocContext into a validated
// unified diff.
package patch

import (
	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/domain"
)

// styleRule is one row of the planner's decision table.
type styleRule struct {
	driftType  domain.DriftType
	source     domain.SourceType // zero value matches any source
	minConf    float64
	style      domain.PatchStyle
	belowStyle domain.PatchStyle
}

// decisionTable implements's worked examples: "(instruction, github) ->
// replace_steps at >= 0.85 else add_note", "(process, incident) ->
// reorder_steps at >= 0.75 else add_note", "(ownership, pagerduty) ->
// update_owner_block always", "(coverage, *) -> add_section".
var decisionTable = []styleRule{
	{driftType: domain.DriftInstruction, source: domain.SourceGitHubPR, minConf: 0.85, style: domain.StyleReplaceSteps, belowStyle: domain.StyleAddNote},
	{driftType: domain.DriftProcess, source: domain.SourcePagerDutyIncident, minConf: 0.75, style: domain.StyleReorderSteps, belowStyle: domain.StyleAddNote},
	{driftType: domain.DriftOwnership, source: domain.SourcePagerDutyIncident, minConf: 0, style: domain.StyleUpdateOwnerBlock, belowStyle: domain.StyleUpdateOwnerBlock},
	{driftType: domain.DriftCoverage, minConf: 0, style: domain.StyleAddSection, belowStyle: domain.StyleAddSection},
}

// allowedStyles constrains the planner's chosen style to what each
// target system actually supports.
var allowedStyles = map[docadapter.SystemKind]map[domain.PatchStyle]bool{
	docadapter.SystemOpenAPI: set(domain.StyleUpdateDescription, domain.StyleUpdateParam, domain.StyleUpdatePath, domain.StyleAddExample, domain.StyleCreatePR),
	docadapter.SystemBackstage: set(domain.StyleUpdateOwnership, domain.StyleUpdateDescription, domain.StyleCreatePR),
	docadapter.SystemConfluence: set(domain.StyleReplaceSteps, domain.StyleAddNote, domain.StyleReorderSteps, domain.StyleUpdateOwnerBlock, domain.StyleAddSection),
	docadapter.SystemNotion: set(domain.StyleReplaceSteps, domain.StyleAddNote, domain.StyleReorderSteps, domain.StyleUpdateOwnerBlock, domain.StyleAddSection),
	docadapter.SystemGitHubMD: set(domain.StyleReplaceSteps, domain.StyleAddNote, domain.StyleReorderSteps, domain.StyleUpdateOwnerBlock, domain.StyleAddSection, domain.StyleCreatePR),
	docadapter.SystemGitBook: set(domain.StyleReplaceSteps, domain.StyleAddNote, domain.StyleReorderSteps, domain.StyleUpdateOwnerBlock, domain.StyleAddSection, domain.StyleCreatePR),
}

func set(styles ...domain.PatchStyle) map[domain.PatchStyle]bool {
	m := make(map[domain.PatchStyle]bool, len(styles))
	for _, s := range styles {
		m[s] = true
	}
	return m
}

// PickStyle selects a PatchStyle for (driftType, source, confidence),
// then constrains it to system's allowed set. A style/system mismatch
// falls back to add_note for wiki-style systems and
// create_pr for git-backed systems.
func PickStyle(driftType domain.DriftType, source domain.SourceType, confidence float64, system docadapter.SystemKind) domain.PatchStyle {
	style := rawStyle(driftType, source, confidence)
	if allowedStyles[system][style] {
		return style
	}
	if docadapter.IsWikiStyle(system) {
		return domain.StyleAddNote
	}
	return domain.StyleCreatePR
}

func rawStyle(driftType domain.DriftType, source domain.SourceType, confidence float64) domain.PatchStyle {
	for _, r := range decisionTable {
		if r.driftType != driftType {
			continue
		}
		if r.source != "" && r.source != source {
			continue
		}
		if confidence >= r.minConf {
			return r.style
		}
		return r.belowStyle
	}
	return domain.StyleAddNote
}
