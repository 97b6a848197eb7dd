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

package signal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/signal"
)

var _ = Describe("ValidateExtracted", func() {
	// per-source required field sets.
	DescribeTable("rejects a payload missing a required field with EXTRACTED_SCHEMA_VIOLATION",
		func(sourceType domain.SourceType, payload domain.ExtractedPayload) {
			err := signal.ValidateExtracted(sourceType, payload)
			Expect(err).To(HaveOccurred())
			Expect(drifterrors.GetCode(err)).To(Equal("EXTRACTED_SCHEMA_VIOLATION"))
		},
		Entry("github_pr with no changed files", domain.SourceGitHubPR, domain.ExtractedPayload{
			GitHubPR: &domain.GitHubPRExtracted{TotalChanges: 3, Diff: "diff --git a b"},
		}),
		Entry("github_pr with no diff", domain.SourceGitHubPR, domain.ExtractedPayload{
			GitHubPR: &domain.GitHubPRExtracted{
				ChangedFiles: []domain.ChangedFile{{Path: "a.go"}},
				TotalChanges: 3,
			},
		}),
		Entry("pagerduty_incident with no responders", domain.SourcePagerDutyIncident, domain.ExtractedPayload{
			PagerDutyIncident: &domain.PagerDutyIncidentExtracted{
				Status: "resolved", Service: "checkout",
				Timeline:         []domain.IncidentTimelineStep{{Summary: "ack"}},
				EscalationPolicy: "primary",
				Teams:            []string{"payments"},
			},
		}),
		Entry("slack_cluster below minimum cluster size", domain.SourceSlackCluster, domain.ExtractedPayload{
			SlackCluster: &domain.SlackClusterExtracted{
				ClusterSize: 1, UniqueAskers: 2,
				Questions: []string{"q"}, Messages: []string{"m"},
			},
		}),
		Entry("slack_cluster below minimum unique askers", domain.SourceSlackCluster, domain.ExtractedPayload{
			SlackCluster: &domain.SlackClusterExtracted{
				ClusterSize: 2, UniqueAskers: 1,
				Questions: []string{"q"}, Messages: []string{"m"},
			},
		}),
		Entry("datadog_alert with no tags", domain.SourceDatadogAlert, domain.ExtractedPayload{
			DatadogAlert: &domain.DatadogAlertExtracted{
				MonitorName: "cpu-high", Severity: "critical", AlertType: "metric alert",
			},
		}),
		Entry("nil payload for the declared source", domain.SourceGitHubPR, domain.ExtractedPayload{}),
	)

	It("accepts a fully populated github_pr payload", func() {
		err := signal.ValidateExtracted(domain.SourceGitHubPR, domain.ExtractedPayload{
			GitHubPR: &domain.GitHubPRExtracted{
				ChangedFiles: []domain.ChangedFile{{Path: "runbook.md", Additions: 1}},
				TotalChanges: 1,
				Diff:         "diff --git a/runbook.md b/runbook.md",
			},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("accepts a fully populated pagerduty_incident payload", func() {
		err := signal.ValidateExtracted(domain.SourcePagerDutyIncident, domain.ExtractedPayload{
			PagerDutyIncident: &domain.PagerDutyIncidentExtracted{
				Status: "resolved", Service: "checkout",
				Responders:       []string{"alice"},
				Timeline:         []domain.IncidentTimelineStep{{Summary: "ack"}},
				EscalationPolicy: "primary",
				Teams:            []string{"payments"},
			},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects an unrecognized source type", func() {
		err := signal.ValidateExtracted(domain.SourceType("carrier_pigeon"), domain.ExtractedPayload{})
		Expect(err).To(HaveOccurred())
		Expect(drifterrors.GetCode(err)).To(Equal("EXTRACTED_SCHEMA_VIOLATION"))
	})
})
