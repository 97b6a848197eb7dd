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

// Package signal normalizes raw per-source webhook payloads into the
// canonical domain.SignalEvent shape and derives the
// deterministic ID that makes re-delivered webhooks idempotent.
package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// GitHubPRID derives the idempotent SignalEvent ID for a merged PR event.
func GitHubPRID(owner, repo string, number int) string {
	return fmt.Sprintf("github_pr_%s_%s_%d", owner, repo, number)
}

// PagerDutyIncidentID derives the ID for an incident lifecycle event.
func PagerDutyIncidentID(incidentID string) string {
	return fmt.Sprintf("pagerduty_incident_%s", incidentID)
}

// SlackClusterID derives the ID for a question-cluster event. Clusters
// have no natural external ID, so the ID is a content hash over the
// channel and the sorted representative question set — re-running the
// clustering job over the same messages must yield the same ID.
func SlackClusterID(channel string, questions []string) string {
	h := sha256.New()
	h.Write([]byte(channel))
	for _, q := range questions {
		h.Write([]byte{0})
		h.Write([]byte(q))
	}
	return fmt.Sprintf("slack_cluster_%s", hex.EncodeToString(h.Sum(nil))[:16])
}

// DatadogAlertID derives the ID for a monitor alert event.
func DatadogAlertID(alertID string) string {
	return fmt.Sprintf("datadog_alert_%s", alertID)
}

// GitHubIaCID derives the ID for an infrastructure-as-code change event.
func GitHubIaCID(owner, repo string, number int) string {
	return fmt.Sprintf("github_iac_%s_%s_%d", owner, repo, number)
}

// GitHubCodeownersID derives the ID for a CODEOWNERS change event.
func GitHubCodeownersID(owner, repo string, number int) string {
	return fmt.Sprintf("github_codeowners_%s_%s_%d", owner, repo, number)
}

// DeriveID computes the deterministic SignalEvent ID for any already-
// normalized event, dispatching on its source type. It is used by the
// deduplication check at ingest time.
func DeriveID(sourceType domain.SourceType, natural map[string]string) (string, error) {
	switch sourceType {
	case domain.SourceGitHubPR:
		return fmt.Sprintf("github_pr_%s_%s_%s", natural["owner"], natural["repo"], natural["number"]), nil
	case domain.SourcePagerDutyIncident:
		return PagerDutyIncidentID(natural["incidentId"]), nil
	case domain.SourceDatadogAlert:
		return DatadogAlertID(natural["alertId"]), nil
	case domain.SourceGitHubIaC:
		return fmt.Sprintf("github_iac_%s_%s_%s", natural["owner"], natural["repo"], natural["number"]), nil
	case domain.SourceGitHubCodeowners:
		return fmt.Sprintf("github_codeowners_%s_%s_%s", natural["owner"], natural["repo"], natural["number"]), nil
	default:
		return "", fmt.Errorf("signal: no deterministic id scheme for source type %q", sourceType)
	}
}
