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
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/signal"
)

func TestSignal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Signal Normalization Suite")
}

var _ = Describe("deterministic ID derivation", func() {
	// Redelivered webhooks for the same PR must collapse
	// onto the same SignalEvent ID.
	It("derives the same github_pr ID for repeated calls", func() {
		a := signal.GitHubPRID("acme", "widgets", 42)
		b := signal.GitHubPRID("acme", "widgets", 42)
		Expect(a).To(Equal(b))
		Expect(a).To(Equal("github_pr_acme_widgets_42"))
	})

	It("derives distinct IDs for different PR numbers", func() {
		Expect(signal.GitHubPRID("acme", "widgets", 1)).NotTo(Equal(signal.GitHubPRID("acme", "widgets", 2)))
	})

	It("derives the pagerduty_incident ID from the incident ID alone", func() {
		Expect(signal.PagerDutyIncidentID("PINC123")).To(Equal("pagerduty_incident_PINC123"))
	})

	It("derives the datadog_alert ID from the alert ID alone", func() {
		Expect(signal.DatadogAlertID("alert-789")).To(Equal("datadog_alert_alert-789"))
	})

	It("derives a stable slack_cluster ID for the same channel and questions", func() {
		qs := []string{"how do I deploy?", "what's the runbook?"}
		a := signal.SlackClusterID("#platform-help", qs)
		b := signal.SlackClusterID("#platform-help", qs)
		Expect(a).To(Equal(b))
		Expect(a).To(HavePrefix("slack_cluster_"))
	})

	It("derives different slack_cluster IDs for different question sets", func() {
		a := signal.SlackClusterID("#platform-help", []string{"q1"})
		b := signal.SlackClusterID("#platform-help", []string{"q2"})
		Expect(a).NotTo(Equal(b))
	})

	It("derives distinct github_iac and github_codeowners IDs from the same PR coordinates", func() {
		Expect(signal.GitHubIaCID("acme", "infra", 7)).NotTo(Equal(signal.GitHubCodeownersID("acme", "infra", 7)))
	})
})
