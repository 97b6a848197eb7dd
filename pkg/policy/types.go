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

// Package policy evaluates YAML-defined PolicyPacks against changed-file
// facts and evidence context: canonical hashing,
// obligation comparators, a parallel fact-condition DSL, and multi-pack
// merge-strategy conflict resolution.
package policy

// ScopeType is the level a PolicyPack is published at.
type ScopeType string

const (
	ScopeWorkspace ScopeType = "workspace"
	ScopeService   ScopeType = "service"
	ScopeRepo      ScopeType = "repo"
)

// MergeStrategy resolves conflicts when several packs apply to the same
// evaluation.
type MergeStrategy string

const (
	MergeMostRestrictive MergeStrategy = "MOST_RESTRICTIVE"
	MergeHighestPriority  MergeStrategy = "HIGHEST_PRIORITY"
	MergeExplicit         MergeStrategy = "EXPLICIT"
)

// Decision is an obligation's outcome when its comparator or condition
// fails.
type Decision string

const (
	DecisionBlock Decision = "block"
	DecisionWarn  Decision = "warn"
	DecisionPass  Decision = "pass"
)

// PackStatus mirrors domain's PolicyPack.status.
type PackStatus string

const (
	PackDraft     PackStatus = "draft"
	PackPublished PackStatus = "published"
	PackArchived  PackStatus = "archived"
)

// Metadata is PolicyPack.metadata.
type Metadata struct {
	ID                string   `yaml:"id" json:"id"`
	Name              string   `yaml:"name" json:"name"`
	Version           string   `yaml:"version" json:"version"`
	Tags              []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	ScopePriority     int      `yaml:"scopePriority" json:"scopePriority"`
	ScopeMergeStrategy MergeStrategy `yaml:"scopeMergeStrategy" json:"scopeMergeStrategy"`
}

// PathSet is an include/exclude glob pair used throughout scope/trigger/skipIf.
type PathSet struct {
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Scope is PolicyPack.scope.
type Scope struct {
	Type        ScopeType `yaml:"type" json:"type"`
	Repos       PathSet   `yaml:"repos,omitempty" json:"repos,omitempty"`
	Branches    PathSet   `yaml:"branches,omitempty" json:"branches,omitempty"`
	ActorSignals []string `yaml:"actorSignals,omitempty" json:"actorSignals,omitempty"`
	PREvents    []string  `yaml:"prEvents,omitempty" json:"prEvents,omitempty"`
}

// Trigger decides whether a rule applies to the current changed-file set.
type Trigger struct {
	AnyChangedPaths []string `yaml:"anyChangedPaths,omitempty" json:"anyChangedPaths,omitempty"`
	AllChangedPaths []string `yaml:"allChangedPaths,omitempty" json:"allChangedPaths,omitempty"`
	Always          bool     `yaml:"always,omitempty" json:"always,omitempty"`
}

// Obligation is one requirement a rule enforces, via either a named
// comparator or a fact-based condition tree.
type Obligation struct {
	ComparatorID   string                 `yaml:"comparatorId,omitempty" json:"comparatorId,omitempty"`
	Params         map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
	Condition      *Condition             `yaml:"condition,omitempty" json:"condition,omitempty"`
	Severity       string                 `yaml:"severity" json:"severity"`
	DecisionOnFail Decision               `yaml:"decisionOnFail" json:"decisionOnFail"`
}

// SkipIf is the evaluation-wide early-exit condition set.
type SkipIf struct {
	Labels          []string `yaml:"labels,omitempty" json:"labels,omitempty"`
	AllChangedPaths []string `yaml:"allChangedPaths,omitempty" json:"allChangedPaths,omitempty"`
	PRBodyContains  []string `yaml:"prBodyContains,omitempty" json:"prBodyContains,omitempty"`
}

// Rule is one named obligation-bearing unit.
type Rule struct {
	ID         string       `yaml:"id" json:"id"`
	Enabled    bool         `yaml:"enabled" json:"enabled"`
	Trigger    Trigger      `yaml:"trigger" json:"trigger"`
	Obligations []Obligation `yaml:"obligations" json:"obligations"`
}

// Budgets bound evaluation cost.
type Budgets struct {
	TotalTimeoutSeconds       int `yaml:"totalTimeoutSeconds" json:"totalTimeoutSeconds"`
	PerComparatorTimeoutSeconds int `yaml:"perComparatorTimeoutSeconds" json:"perComparatorTimeoutSeconds"`
	MaxAPICalls               int `yaml:"maxApiCalls" json:"maxApiCalls"`
}

// ExternalDependencyMode controls how evaluation behaves when a
// comparator's external dependency (GitHub API, etc.) is unavailable.
type ExternalDependencyMode string

const (
	ExternalDependencyStrict ExternalDependencyMode = "strict"
	ExternalDependencySkip   ExternalDependencyMode = "skip_on_unavailable"
)

// Evaluation is PolicyPack.evaluation.
type Evaluation struct {
	ExternalDependencyMode ExternalDependencyMode `yaml:"externalDependencyMode" json:"externalDependencyMode"`
	Budgets                Budgets                `yaml:"budgets" json:"budgets"`
	SkipIf                 *SkipIf                `yaml:"skipIf,omitempty" json:"skipIf,omitempty"`
}

// Artifacts declares the ContractGate track's required artifact types
// .
type Artifacts struct {
	RequiredTypes []string `yaml:"requiredTypes,omitempty" json:"requiredTypes,omitempty"`
}

// Pack is the parsed PolicyPack YAML document.
type Pack struct {
	Metadata   Metadata   `yaml:"metadata" json:"metadata"`
	Scope      Scope      `yaml:"scope" json:"scope"`
	Artifacts  *Artifacts `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
	Rules      []Rule     `yaml:"rules" json:"rules"`
	Evaluation Evaluation `yaml:"evaluation" json:"evaluation"`

	// VersionHash is the canonical SHA-256 hash, set by Canonicalize/Hash
	// rather than present in the authored YAML.
	VersionHash string `yaml:"-" json:"-"`
}
