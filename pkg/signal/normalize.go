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

package signal

import (
	"time"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// RawGitHubPR is the subset of a GitHub "pull_request" webhook the
// normalizer consumes. Transport-level signature verification and JSON
// decoding of the full webhook envelope happen upstream of this package
// (out of scope).
type RawGitHubPR struct {
	Owner        string
	Repo         string
	Number       int
	Title        string
	Body         string
	Author       string
	Merged       bool
	BaseRef      string
	HeadRef      string
	HeadSHA      string
	MergedAt     time.Time
	ChangedFiles []domain.ChangedFile
	Diff         string
}

// NormalizeGitHubPR converts a decoded GitHub PR webhook into a canonical
// SignalEvent.
func NormalizeGitHubPR(workspaceID string, r RawGitHubPR) domain.SignalEvent {
	total := 0
	for _, f := range r.ChangedFiles {
		total += f.Additions + f.Deletions
	}
	return domain.SignalEvent{
		ID:          GitHubPRID(r.Owner, r.Repo, r.Number),
		WorkspaceID: workspaceID,
		SourceType:  domain.SourceGitHubPR,
		OccurredAt:  r.MergedAt,
		Repo:        r.Owner + "/" + r.Repo,
		Extracted: domain.ExtractedPayload{
			GitHubPR: &domain.GitHubPRExtracted{
				Number:       r.Number,
				Title:        r.Title,
				Body:         r.Body,
				Author:       r.Author,
				Merged:       r.Merged,
				BaseRef:      r.BaseRef,
				HeadRef:      r.HeadRef,
				HeadSHA:      r.HeadSHA,
				ChangedFiles: r.ChangedFiles,
				TotalChanges: total,
				Diff:         r.Diff,
			},
		},
	}
}

// RawPagerDutyIncident is the subset of a PagerDuty incident webhook the
// normalizer consumes.
type RawPagerDutyIncident struct {
	IncidentID       string
	Status           string
	Priority         string
	Service          string
	Responders       []string
	Teams            []string
	EscalationPolicy string
	Timeline         []domain.IncidentTimelineStep
	ResolvedAt       time.Time
	DurationSeconds  int
}

// NormalizePagerDutyIncident converts a decoded PagerDuty incident event
// into a canonical SignalEvent.
func NormalizePagerDutyIncident(workspaceID string, r RawPagerDutyIncident) domain.SignalEvent {
	return domain.SignalEvent{
		ID:          PagerDutyIncidentID(r.IncidentID),
		WorkspaceID: workspaceID,
		SourceType:  domain.SourcePagerDutyIncident,
		OccurredAt:  r.ResolvedAt,
		Service:     r.Service,
		Severity:    r.Priority,
		Extracted: domain.ExtractedPayload{
			PagerDutyIncident: &domain.PagerDutyIncidentExtracted{
				IncidentID:       r.IncidentID,
				Status:           r.Status,
				Priority:         r.Priority,
				Service:          r.Service,
				Responders:       r.Responders,
				Teams:            r.Teams,
				EscalationPolicy: r.EscalationPolicy,
				Timeline:         r.Timeline,
				DurationSeconds:  r.DurationSeconds,
			},
		},
	}
}

// RawSlackCluster is a question cluster surfaced by the upstream
// clustering job (out of scope: the clustering algorithm itself treats it as
// an external collaborator producing this shape).
type RawSlackCluster struct {
	Channel      string
	Questions    []string
	Messages     []string
	UniqueAskers int
	FirstSeen    time.Time
	LastSeen     time.Time
}

// NormalizeSlackCluster converts a raw question cluster into a canonical
// SignalEvent.
func NormalizeSlackCluster(workspaceID string, r RawSlackCluster) domain.SignalEvent {
	return domain.SignalEvent{
		ID:          SlackClusterID(r.Channel, r.Questions),
		WorkspaceID: workspaceID,
		SourceType:  domain.SourceSlackCluster,
		OccurredAt:  r.LastSeen,
		Extracted: domain.ExtractedPayload{
			SlackCluster: &domain.SlackClusterExtracted{
				Channel:                r.Channel,
				RepresentativeQuestion: firstOrEmpty(r.Questions),
				Questions:              r.Questions,
				Messages:               r.Messages,
				ClusterSize:            len(r.Messages),
				UniqueAskers:           r.UniqueAskers,
				FirstSeen:              r.FirstSeen,
				LastSeen:               r.LastSeen,
			},
		},
	}
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// RawMonitoringAlert is the subset of a Datadog or Grafana alert webhook
// the normalizer consumes. Both providers normalize to the same
// DatadogAlertExtracted shape.
type RawMonitoringAlert struct {
	AlertID      string
	MonitorName  string
	Severity     string
	AlertType    string
	Metric       string
	Threshold    float64
	CurrentValue float64
	Tags         []string
	AlertURL     string
	Service      string
	FiredAt      time.Time
}

// NormalizeMonitoringAlert converts a decoded monitoring alert into a
// canonical SignalEvent.
func NormalizeMonitoringAlert(workspaceID string, r RawMonitoringAlert) domain.SignalEvent {
	return domain.SignalEvent{
		ID:          DatadogAlertID(r.AlertID),
		WorkspaceID: workspaceID,
		SourceType:  domain.SourceDatadogAlert,
		OccurredAt:  r.FiredAt,
		Service:     r.Service,
		Severity:    r.Severity,
		Extracted: domain.ExtractedPayload{
			DatadogAlert: &domain.DatadogAlertExtracted{
				AlertID:      r.AlertID,
				MonitorName:  r.MonitorName,
				Severity:     r.Severity,
				AlertType:    r.AlertType,
				Metric:       r.Metric,
				Threshold:    r.Threshold,
				CurrentValue: r.CurrentValue,
				Tags:         r.Tags,
				AlertURL:     r.AlertURL,
			},
		},
	}
}

// NormalizeGitHubIaC and NormalizeGitHubCodeowners reuse the PR shape:
// both source types arrive as merged pull requests that happen to touch
// IaC manifests or the CODEOWNERS file respectively; the
// distinguishing logic lives in the Evidence Extractor (C2), which
// inspects ChangedFiles paths, not in normalization.

func NormalizeGitHubIaC(workspaceID string, r RawGitHubPR) domain.SignalEvent {
	evt := NormalizeGitHubPR(workspaceID, r)
	evt.ID = GitHubIaCID(r.Owner, r.Repo, r.Number)
	evt.SourceType = domain.SourceGitHubIaC
	return evt
}

func NormalizeGitHubCodeowners(workspaceID string, r RawGitHubPR) domain.SignalEvent {
	evt := NormalizeGitHubPR(workspaceID, r)
	evt.ID = GitHubCodeownersID(r.Owner, r.Repo, r.Number)
	evt.SourceType = domain.SourceGitHubCodeowners
	return evt
}
