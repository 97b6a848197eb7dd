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

package evidence_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/evidence"
)

func TestEvidence(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Evidence Extractor Suite")
}

var _ = Describe("ExtractFromGitHubPR", func() {
	It("extracts changed paths, commands, env vars, endpoints and versions from a diff", func() {
		pr := &domain.GitHubPRExtracted{
			ChangedFiles: []domain.ChangedFile{
				{Path: "runbooks/deploy.md", Status: "modified"},
				{Path: "go.mod", Status: "modified"},
			},
			Diff: "+ $ kubectl apply -f deploy.yaml\n" +
				"+ DEPLOY_TIMEOUT=300\n" +
				"+ POST /api/v2/deploy\n" +
				"+ upgraded to v1.4.2\n",
		}

		art := evidence.ExtractFromGitHubPR(pr)

		Expect(art.Paths).To(ConsistOf("go.mod", "runbooks/deploy.md"))
		Expect(art.Tools).To(ContainElement("k8s_tool"))
		Expect(art.ConfigKeys).To(ContainElement("DEPLOY_TIMEOUT"))
		Expect(art.Endpoints).To(ContainElement("POST /api/v2/deploy"))
		Expect(art.Versions).To(ContainElement("v1.4.2"))
		Expect(art.Dependencies).To(ContainElement("go.mod"))
	})

	It("returns no commands, endpoints or config keys for a diff with none", func() {
		art := evidence.ExtractFromGitHubPR(&domain.GitHubPRExtracted{Diff: "+ just a comment change"})
		Expect(art.Commands).To(BeEmpty())
		Expect(art.Endpoints).To(BeEmpty())
		Expect(art.ConfigKeys).To(BeEmpty())
	})
})

var _ = Describe("ExtractFromIncident", func() {
	It("extracts steps, sequences, teams and owners from the timeline", func() {
		inc := &domain.PagerDutyIncidentExtracted{
			Responders: []string{"alice", "bob"},
			Teams:      []string{"payments"},
			Timeline: []domain.IncidentTimelineStep{
				{Summary: "acknowledged"},
				{Summary: "rolled back deploy"},
				{Summary: "resolved"},
			},
		}

		art := evidence.ExtractFromIncident(inc)

		Expect(art.Steps).To(Equal([]string{"acknowledged", "rolled back deploy", "resolved"}))
		Expect(art.Sequences).To(Equal(art.Steps))
		Expect(art.Teams).To(ContainElements("payments", "alice", "bob"))
		Expect(art.Owners).To(ConsistOf("alice", "bob"))
	})
})

var _ = Describe("ExtractFromSlackCluster", func() {
	It("extracts the channel and deduplicated scenario questions", func() {
		c := &domain.SlackClusterExtracted{
			Channel:   "#platform-help",
			Questions: []string{"how do I deploy?", "how do I deploy?", "what's the rollback process?"},
		}

		art := evidence.ExtractFromSlackCluster(c)

		Expect(art.Channels).To(ConsistOf("#platform-help"))
		Expect(art.Scenarios).To(ConsistOf("how do I deploy?", "what's the rollback process?"))
	})
})

var _ = Describe("DetectToolMigrations", func() {
	// base 0.5, +0.3 old removed, +0.1 many new added.
	It("detects a circleci-to-actions migration with the old config removed", func() {
		changed := []domain.ChangedFile{
			{Path: ".circleci/config.yml", Status: "removed"},
			{Path: ".github/workflows/ci.yml", Status: "added"},
			{Path: ".github/workflows/deploy.yml", Status: "added"},
		}

		results := evidence.DetectToolMigrations(changed)

		Expect(results).NotTo(BeEmpty())
		found := false
		for _, r := range results {
			if r.Migration.OldPath == ".circleci/config.yml" {
				found = true
				Expect(r.OldRemoved).To(BeTrue())
				Expect(r.ManyNewAdded).To(BeTrue())
				Expect(r.Confidence).To(BeNumerically("~", 0.9, 0.001))
			}
		}
		Expect(found).To(BeTrue())
	})

	It("returns a lower confidence when the old config is only modified, not removed", func() {
		changed := []domain.ChangedFile{
			{Path: "package-lock.json", Status: "modified"},
			{Path: "yarn.lock", Status: "added"},
		}

		results := evidence.DetectToolMigrations(changed)
		var got *evidence.MigrationConfidence
		for i := range results {
			if results[i].Migration.NewPath == "yarn.lock" {
				got = &results[i]
			}
		}
		Expect(got).NotTo(BeNil())
		Expect(got.OldRemoved).To(BeFalse())
		Expect(got.Confidence).To(BeNumerically("~", 0.5, 0.001))
	})

	It("detects nothing when no migration-relevant paths changed", func() {
		changed := []domain.ChangedFile{{Path: "README.md", Status: "modified"}}
		Expect(evidence.DetectToolMigrations(changed)).To(BeEmpty())
	})
})
