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

// Package evidence extracts a deterministic, pattern-based
// domain.BaselineArtifacts record from a normalized SignalEvent
//. Extraction is regex-driven and must never call an
// LLM: the BaselineArtifacts record is later diffed against the same
// shape extracted from a document (pkg/claims) by the comparison engine,
// and both sides must be reproducible from the same input every time.
package evidence

import (
	"regexp"
	"sort"

	"github.com/driftsentry/driftcore/pkg/domain"
)

var (
	commandPattern  = regexp.MustCompile(`(?m)^\s*[$>]\s*([a-zA-Z0-9_\-./]+(?:\s+[^\n]*)?)$`)
	envVarPattern   = regexp.MustCompile(`\b([A-Z][A-Z0-9_]{2,})\s*=`)
	endpointPattern = regexp.MustCompile(`\b(GET|POST|PUT|PATCH|DELETE)\s+(/[a-zA-Z0-9_\-/{}:.]*)`)
	decoratorRoute  = regexp.MustCompile("@\\w+\\(\\s*['\"`]?(/[a-zA-Z0-9_\\-/{}:.]*)")
	toolAliases     = map[string]string{
		"kubectl": "k8s_tool",
		"helm":    "k8s_tool",
		"docker":  "container_tool",
		"podman":  "container_tool",
	}
)

// toolTokenPattern matches the bare tool name tokens this extractor
// recognizes, independent of the alias normalization applied elsewhere
// (fingerprinting, §4.6) — here we record the literal tool observed.
var toolTokenPattern = regexp.MustCompile(`\b(kubectl|helm|docker|podman|terraform|ansible|npm|yarn|pnpm|go|make)\b`)

// FileMigration describes a known file-type-to-file-type rename the
// tool-migration detector watches for.
type FileMigration struct {
	OldPath string
	NewPath string
}

// KnownMigrations is the set of recognized tooling migrations.
var KnownMigrations = []FileMigration{
	{OldPath: ".circleci/config.yml", NewPath: ".github/workflows"},
	{OldPath: "package-lock.json", NewPath: "yarn.lock"},
	{OldPath: "package-lock.json", NewPath: "pnpm-lock.yaml"},
	{OldPath: "Gemfile.lock", NewPath: "Gemfile.lock"},
	{OldPath: "Jenkinsfile", NewPath: ".github/workflows"},
}

// ExtractFromGitHubPR builds BaselineArtifacts from a merged PR's diff
// and changed-file list.
func ExtractFromGitHubPR(pr *domain.GitHubPRExtracted) domain.BaselineArtifacts {
	var art domain.BaselineArtifacts

	art.Paths = changedPaths(pr.ChangedFiles)
	art.Commands = uniqueSorted(findAll(commandPattern, pr.Diff, 1))
	art.ConfigKeys = uniqueSorted(findAll(envVarPattern, pr.Diff, 1))
	art.Tools = uniqueSorted(mapTokens(findAll(toolTokenPattern, pr.Diff, 1)))

	endpoints := findAllPairs(endpointPattern, pr.Diff)
	routes := findAll(decoratorRoute, pr.Diff, 1)
	art.Endpoints = uniqueSorted(append(endpoints, routes...))

	art.Versions = uniqueSorted(findAll(regexp.MustCompile(`\bv?\d+\.\d+\.\d+\b`), pr.Diff, 0))
	art.Dependencies = uniqueSorted(changedDependencyFiles(pr.ChangedFiles))

	return art
}

// ExtractFromIncident builds BaselineArtifacts from an incident's
// timeline and metadata.
func ExtractFromIncident(inc *domain.PagerDutyIncidentExtracted) domain.BaselineArtifacts {
	var art domain.BaselineArtifacts
	art.Teams = uniqueSorted(append(append([]string{}, inc.Teams...), inc.Responders...))
	art.Owners = uniqueSorted(inc.Responders)

	steps := make([]string, 0, len(inc.Timeline))
	for _, step := range inc.Timeline {
		steps = append(steps, step.Summary)
	}
	art.Steps = steps
	art.Sequences = sequenceTokens(steps)
	return art
}

// ExtractFromSlackCluster builds BaselineArtifacts from a question
// cluster.
func ExtractFromSlackCluster(c *domain.SlackClusterExtracted) domain.BaselineArtifacts {
	var art domain.BaselineArtifacts
	art.Channels = []string{c.Channel}
	art.Scenarios = uniqueSorted(c.Questions)
	return art
}

// ExtractFromMonitoringAlert builds BaselineArtifacts from a
// Datadog/Grafana alert.
func ExtractFromMonitoringAlert(a *domain.DatadogAlertExtracted) domain.BaselineArtifacts {
	var art domain.BaselineArtifacts
	art.Platforms = uniqueSorted(a.Tags)
	art.Errors = []string{a.AlertType}
	return art
}

// MigrationConfidence is the tool-migration detection result.
type MigrationConfidence struct {
	Migration  FileMigration
	Detected   bool
	Confidence float64
	OldRemoved bool
	OldModified bool
	ManyNewAdded bool
}

// DetectToolMigrations scans a PR's changed files for known file-type
// migrations. base confidence 0.5 when any signal of the
// migration is present; +0.3 if the old path was removed; +0.1 if
// several new-path files were added (> 1).
func DetectToolMigrations(changed []domain.ChangedFile) []MigrationConfidence {
	byPath := make(map[string]domain.ChangedFile, len(changed))
	for _, f := range changed {
		byPath[f.Path] = f
	}

	var results []MigrationConfidence
	for _, mig := range KnownMigrations {
		oldFile, oldSeen := byPath[mig.OldPath]
		newCount := 0
		newModified := false
		for _, f := range changed {
			if matchesMigrationTarget(f.Path, mig.NewPath) {
				newCount++
				if f.Status == "added" {
					newModified = true
				}
			}
		}
		if !oldSeen && newCount == 0 {
			continue
		}

		mc := MigrationConfidence{Migration: mig, Detected: true, Confidence: 0.5}
		if oldSeen && oldFile.Status == "removed" {
			mc.OldRemoved = true
			mc.Confidence += 0.3
		} else if oldSeen {
			mc.OldModified = true
		}
		if newCount > 1 || newModified && newCount > 1 {
			mc.ManyNewAdded = true
			mc.Confidence += 0.1
		}
		if mc.Confidence > 1.0 {
			mc.Confidence = 1.0
		}
		results = append(results, mc)
	}
	return results
}

func matchesMigrationTarget(path, target string) bool {
	if len(path) < len(target) {
		return false
	}
	return path[:len(target)] == target
}

func changedPaths(files []domain.ChangedFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

func changedDependencyFiles(files []domain.ChangedFile) []string {
	var deps []string
	for _, f := range files {
		switch f.Path {
		case "go.mod", "package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Gemfile", "Gemfile.lock", "requirements.txt", "Pipfile.lock":
			deps = append(deps, f.Path)
		}
	}
	return deps
}

func sequenceTokens(steps []string) []string {
	seq := make([]string, len(steps))
	copy(seq, steps)
	return seq
}

func mapTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if alias, ok := toolAliases[t]; ok {
			out[i] = alias
		} else {
			out[i] = t
		}
	}
	return out
}

func findAll(re *regexp.Regexp, s string, group int) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if group < len(m) {
			out = append(out, m[group])
		}
	}
	return out
}

func findAllPairs(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) >= 3 {
			out = append(out, m[1]+" "+m[2])
		}
	}
	return out
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
