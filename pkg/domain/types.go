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

// Package domain holds the core entities of the drift pipeline: Workspace,
// SignalEvent, DriftCandidate, EvidenceBundle, PatchProposal, PolicyPack,
// AuditTrail and SuppressionRule. These are plain structs with no
// persistence or transport concerns attached; the repository interfaces in
// pkg/storage/repository own the mapping to Postgres rows.
package domain

import "time"

// SourceType enumerates the six inbound signal sources.
type SourceType string

const (
	SourceGitHubPR         SourceType = "github_pr"
	SourcePagerDutyIncident SourceType = "pagerduty_incident"
	SourceSlackCluster     SourceType = "slack_cluster"
	SourceDatadogAlert     SourceType = "datadog_alert"
	SourceGitHubIaC        SourceType = "github_iac"
	SourceGitHubCodeowners SourceType = "github_codeowners"
)

// DriftType enumerates the four drift classifications.
// "coverage" is not a DriftType on its own — HasCoverageGap is orthogonal
// — but is included here as a pseudo-type because the patch planner's
// decision table keys a style off it directly.
type DriftType string

const (
	DriftInstruction DriftType = "instruction"
	DriftProcess     DriftType = "process"
	DriftOwnership   DriftType = "ownership"
	DriftEnvironment DriftType = "environment"
	DriftCoverage    DriftType = "coverage"
)

// driftTypePriority implements the tie-break order from: ownership >
// instruction > environment > process.
var driftTypePriority = map[DriftType]int{
	DriftOwnership:   4,
	DriftInstruction: 3,
	DriftEnvironment: 2,
	DriftProcess:     1,
}

// HighestPriorityDriftType picks the winner among several co-firing drift
// types using the tie-break order. Returns "" for an empty input.
func HighestPriorityDriftType(types []DriftType) DriftType {
	var best DriftType
	bestRank := -1
	for _, t := range types {
		if r := driftTypePriority[t]; r > bestRank {
			bestRank = r
			best = t
		}
	}
	return best
}

// ClassificationMethod records how a DriftCandidate reached its classification.
type ClassificationMethod string

const (
	ClassificationDeterministic ClassificationMethod = "deterministic"
	ClassificationLLM           ClassificationMethod = "llm"
	ClassificationHybrid        ClassificationMethod = "hybrid"
)

// State is a value in the DriftCandidate state machine.
type State string

const (
	StateIngested             State = "INGESTED"
	StateNormalized           State = "NORMALIZED"
	StateEligibilityChecked   State = "ELIGIBILITY_CHECKED"
	StateEvidenceBuilt        State = "EVIDENCE_BUILT"
	StateDocsResolved         State = "DOCS_RESOLVED"
	StateCompared             State = "COMPARED"
	StateClassified           State = "CLASSIFIED"
	StatePolicyEvaluated      State = "POLICY_EVALUATED"
	StateRouted               State = "ROUTED"
	StatePatchPlanned         State = "PATCH_PLANNED"
	StatePatchProposed        State = "PATCH_PROPOSED"
	StateAwaitingHuman        State = "AWAITING_HUMAN"
	StateApplied              State = "APPLIED"
	StateRejected             State = "REJECTED"
	StateSnoozed              State = "SNOOZED"
	StateIgnored              State = "IGNORED"
	StateFailed               State = "FAILED"
	StateFailedNeedsMapping   State = "FAILED_NEEDS_MAPPING"
	StateFailedPatchGen       State = "FAILED_PATCH_GENERATION"
)

// Workspace is the tenant boundary.
type Workspace struct {
	ID                        string
	Name                      string
	HighConfidenceThreshold   float64
	MediumConfidenceThreshold float64
	MaterialityThreshold      float64
	OwnershipSourceRanking    []SourceType
	WorkflowPreferences       WorkflowPreferences
	DefaultOwnerRef           string
	CreatedAt                 time.Time
}

// WorkflowPreferences is the workspace's workflowPreferences mapping.
type WorkflowPreferences struct {
	EnabledDriftTypes      []DriftType
	EnabledInputSources    []SourceType
	EnabledOutputTargets   []string
	OutputTargetPriority   []string
	EvidenceGroundedPatching bool
	SkipLowValuePatches    bool
	ExpandedContextMode    bool
	TrackCumulativeDrift   bool
}

func (w WorkflowPreferences) driftTypeEnabled(t DriftType) bool {
	if len(w.EnabledDriftTypes) == 0 {
		return true
	}
	for _, d := range w.EnabledDriftTypes {
		if d == t {
			return true
		}
	}
	return false
}

func (w WorkflowPreferences) sourceEnabled(s SourceType) bool {
	if len(w.EnabledInputSources) == 0 {
		return true
	}
	for _, src := range w.EnabledInputSources {
		if src == s {
			return true
		}
	}
	return false
}

// DriftTypeEnabled reports whether t may be acted on per the workspace's
// workflowPreferences.enabledDriftTypes. An empty list means
// all drift types are enabled.
func (w *Workspace) DriftTypeEnabled(t DriftType) bool {
	return w.WorkflowPreferences.driftTypeEnabled(t)
}

// SourceEnabled reports whether s may create drift candidates per the
// workspace's workflowPreferences.enabledInputSources.
func (w *Workspace) SourceEnabled(s SourceType) bool {
	return w.WorkflowPreferences.sourceEnabled(s)
}

// SignalEvent is the canonicalized inbound event.
type SignalEvent struct {
	ID          string
	WorkspaceID string
	SourceType  SourceType
	OccurredAt  time.Time
	Service     string
	Repo        string
	Severity    string
	Extracted   ExtractedPayload
	RawPayload  []byte
	CreatedAt   time.Time
}

// ExtractedPayload is the tagged union keyed by SourceType. Exactly one
// of the pointer fields is populated, matching Extracted.SourceType.
type ExtractedPayload struct {
	GitHubPR         *GitHubPRExtracted
	PagerDutyIncident *PagerDutyIncidentExtracted
	SlackCluster     *SlackClusterExtracted
	DatadogAlert     *DatadogAlertExtracted
}

type GitHubPRExtracted struct {
	Number       int
	Title        string
	Body         string
	Author       string
	Merged       bool
	BaseRef      string
	HeadRef      string
	HeadSHA      string
	ChangedFiles []ChangedFile `validate:"required,min=1"`
	TotalChanges int           `validate:"gt=0"`
	Diff         string        `validate:"required"`
}

type ChangedFile struct {
	Path   string
	Status string // added | modified | removed | renamed
	Additions int
	Deletions int
}

type PagerDutyIncidentExtracted struct {
	IncidentID       string
	Status           string                 `validate:"required"`
	Priority         string
	Service          string                 `validate:"required"`
	Responders       []string               `validate:"required,min=1"`
	Teams            []string               `validate:"required,min=1"`
	EscalationPolicy string                 `validate:"required"`
	Timeline         []IncidentTimelineStep `validate:"required,min=1"`
	DurationSeconds  int
}

type IncidentTimelineStep struct {
	At      time.Time
	Summary string
	Actor   string
}

type SlackClusterExtracted struct {
	Channel                string
	RepresentativeQuestion string
	Questions              []string `validate:"required,min=1"`
	Messages               []string `validate:"required,min=1"`
	ClusterSize            int      `validate:"gte=2"`
	UniqueAskers           int      `validate:"gte=2"`
	FirstSeen              time.Time
	LastSeen               time.Time
}

type DatadogAlertExtracted struct {
	AlertID      string
	MonitorName  string   `validate:"required"`
	Severity     string   `validate:"required"`
	AlertType    string   `validate:"required"`
	Metric       string
	Threshold    float64
	CurrentValue float64
	Tags         []string `validate:"required,min=1"`
	AlertURL     string
}

// BaselineArtifacts is the deterministic extraction shape shared by the
// Evidence Extractor (from a signal) and the Claim Extractor (from a
// document) — always a typed struct, never a free-form map.
type BaselineArtifacts struct {
	Commands     []string
	ConfigKeys   []string
	Endpoints    []string
	Tools        []string
	Steps        []string
	Decisions    []string
	Sequences    []string
	Teams        []string
	Owners       []string
	Paths        []string
	Channels     []string
	Platforms    []string
	Versions     []string
	Dependencies []string
	Scenarios    []string
	Features     []string
	Errors       []string
}

// ImpactBand coarsens an EvidenceBundle's impactScore.
type ImpactBand string

const (
	ImpactLow      ImpactBand = "low"
	ImpactMedium   ImpactBand = "medium"
	ImpactHigh     ImpactBand = "high"
	ImpactCritical ImpactBand = "critical"
)

// Assessment is the EvidenceBundle.assessment field.
type Assessment struct {
	ImpactScore float64
	ImpactBand  ImpactBand
	FiredRules  []string
	BlastRadius string
}

// Fingerprints is the three-level fingerprint set.
type Fingerprints struct {
	Strict string
	Medium string
	Broad  string
}

// EvidenceBundle is the immutable, content-addressed evidence record
//. Once written it is never mutated.
type EvidenceBundle struct {
	BundleID        string
	DriftCandidateID string
	SourceEvidence  BaselineArtifacts
	SourceExcerpt   string
	TargetEvidence  BaselineArtifacts
	Assessment      Assessment
	Fingerprints    Fingerprints
	SchemaVersion   int
	CreatedAt       time.Time
}

// ComparisonResult is the Comparison Engine's output.
type ComparisonResult struct {
	DriftType       DriftType
	Confidence      float64
	HasDrift        bool
	HasCoverageGap  bool
	AllDriftTypes   []DriftType
	Conflicts       []string
	NewContent      []string
	CoverageGaps    []string
	Recommendation  PatchStyle
}

// PatchStyle enumerates the patch styles the planner (C11) may choose.
type PatchStyle string

const (
	StyleReplaceSteps     PatchStyle = "replace_steps"
	StyleAddNote          PatchStyle = "add_note"
	StyleReorderSteps     PatchStyle = "reorder_steps"
	StyleUpdateOwnerBlock PatchStyle = "update_owner_block"
	StyleAddSection       PatchStyle = "add_section"
	StyleUpdateDescription PatchStyle = "update_description"
	StyleUpdateParam      PatchStyle = "update_param"
	StyleUpdatePath       PatchStyle = "update_path"
	StyleAddExample       PatchStyle = "add_example"
	StyleUpdateJSDoc      PatchStyle = "update_jsdoc"
	StyleCreatePR         PatchStyle = "create_pr"
	StyleUpdateOwnership  PatchStyle = "update_ownership"
)

// DocRef identifies a target document within a document adapter's system.
type DocRef struct {
	AdapterType string // confluence | notion | readme | swagger | backstage | codecomment | gitbook
	Workspace   string
	Repo        string
	Path        string
	ExternalID  string
}

// RoutingDecision is the Routing Policy's output.
type RoutingDecision struct {
	Priority  string // P0 | P1 | P2
	Channel   string
	IsDM      bool
	Escalated bool
	Reason    string
}

// PatchProposalStatus enumerates PatchProposal.status.
type PatchProposalStatus string

const (
	ProposalPending  PatchProposalStatus = "pending"
	ProposalApproved PatchProposalStatus = "approved"
	ProposalRejected PatchProposalStatus = "rejected"
	ProposalSnoozed  PatchProposalStatus = "snoozed"
	ProposalApplied  PatchProposalStatus = "applied"
	ProposalFailed   PatchProposalStatus = "failed"
)

// PatchProposal is the proposed textual patch awaiting human review.
type PatchProposal struct {
	ID               string
	DriftID          string
	DocRef           DocRef
	BaseRevision     string
	ProposedContent  string
	Style            PatchStyle
	Confidence       float64
	Status           PatchProposalStatus
	SlackMessageTS   string
	SlackChannelID   string
	RejectionReason  string
	RejectionTags    []string
	ResolvedBy       string
	ResolvedAt       *time.Time
	LastNotifiedAt   *time.Time
	FindingsAttached []string // policy findings attached per scenario 5 (block_merge)
}

// DriftCandidate is the unit of work advancing through the state machine.
type DriftCandidate struct {
	ID                       string
	WorkspaceID              string
	SignalEventID            string
	State                    State
	StateUpdatedAt           time.Time
	SourceType               SourceType
	Service                  string
	Repo                     string
	DriftType                DriftType
	ClassificationMethod     ClassificationMethod
	Confidence               float64
	ComparisonResult         *ComparisonResult
	EvidenceBundleID         string
	DocCandidates            []DocRef
	DocsResolutionStatus     string
	DocsResolutionConfidence float64
	OwnerResolution          string
	RoutingDecision          *RoutingDecision
	ActivePlanID             string
	ActivePlanVersion        int
	ActivePlanHash           string
	CorrelatedSignals        []string
	HasCoverageGap           bool
	FingerprintStrict        string
	FingerprintMedium        string
	FingerprintBroad         string
	RetryCount               int
	LastErrorCode            string
	LastErrorMessage         string
	TraceID                  string
	SnoozedUntil             *time.Time
	CreatedAt                time.Time
}

// TerminalStates is the set of states from which no further transition is
// possible.
var TerminalStates = map[State]bool{
	StateApplied:            true,
	StateRejected:           true,
	StateIgnored:            true,
	StateFailed:             true,
	StateFailedNeedsMapping: true,
	StateFailedPatchGen:     true,
}

// IsTerminal reports whether s is a terminal state. SNOOZED is
// deliberately excluded: it is a timed suspension, not an endpoint.
func IsTerminal(s State) bool {
	return TerminalStates[s]
}

// AuditTrail is one immutable row per state transition or human action.
type AuditTrail struct {
	ID          string
	DriftID     string
	FromState   State
	ToState     State
	Actor       string
	Timestamp   time.Time
	DurationMs  int64
	Metadata    map[string]string
}

// SuppressionLevel is the fingerprint granularity a SuppressionRule applies at.
type SuppressionLevel string

const (
	SuppressionStrict SuppressionLevel = "strict"
	SuppressionMedium SuppressionLevel = "medium"
	SuppressionBroad  SuppressionLevel = "broad"
)

// SuppressionRule learns from human rejections to suppress recurring
// false positives.
type SuppressionRule struct {
	ID          string
	WorkspaceID string
	Fingerprint string
	Level       SuppressionLevel
	Reason      string
	CreatedBy   string
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}
