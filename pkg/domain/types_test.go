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

package domain_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/domain"
)

func TestDomain(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Domain Suite")
}

// Terminal state identification
var _ = Describe("IsTerminal", func() {
	DescribeTable("should correctly identify terminal vs non-terminal states",
		func(s domain.State, expected bool) {
			Expect(domain.IsTerminal(s)).To(Equal(expected))
		},
		Entry("INGESTED is not terminal", domain.StateIngested, false),
		Entry("AWAITING_HUMAN is not terminal", domain.StateAwaitingHuman, false),
		Entry("SNOOZED is not terminal (timed suspension)", domain.StateSnoozed, false),
		Entry("APPLIED is terminal", domain.StateApplied, true),
		Entry("REJECTED is terminal", domain.StateRejected, true),
		Entry("IGNORED is terminal", domain.StateIgnored, true),
		Entry("FAILED is terminal", domain.StateFailed, true),
		Entry("FAILED_NEEDS_MAPPING is terminal", domain.StateFailedNeedsMapping, true),
		Entry("FAILED_PATCH_GENERATION is terminal", domain.StateFailedPatchGen, true),
	)
})

// drift type tie-break priority
var _ = Describe("HighestPriorityDriftType", func() {
	It("picks ownership over every other type", func() {
		got := domain.HighestPriorityDriftType([]domain.DriftType{
			domain.DriftProcess, domain.DriftOwnership, domain.DriftInstruction,
		})
		Expect(got).To(Equal(domain.DriftOwnership))
	})

	It("picks instruction over environment and process", func() {
		got := domain.HighestPriorityDriftType([]domain.DriftType{
			domain.DriftEnvironment, domain.DriftInstruction, domain.DriftProcess,
		})
		Expect(got).To(Equal(domain.DriftInstruction))
	})

	It("picks environment over process", func() {
		got := domain.HighestPriorityDriftType([]domain.DriftType{
			domain.DriftProcess, domain.DriftEnvironment,
		})
		Expect(got).To(Equal(domain.DriftEnvironment))
	})

	It("returns empty for no input", func() {
		Expect(domain.HighestPriorityDriftType(nil)).To(Equal(domain.DriftType("")))
	})
})

var _ = Describe("Workspace preference gating", func() {
	It("enables every drift type and source when the lists are empty", func() {
		ws := &domain.Workspace{}
		Expect(ws.DriftTypeEnabled(domain.DriftOwnership)).To(BeTrue())
		Expect(ws.SourceEnabled(domain.SourceSlackCluster)).To(BeTrue())
	})

	It("restricts to the configured subset when non-empty", func() {
		ws := &domain.Workspace{
			WorkflowPreferences: domain.WorkflowPreferences{
				EnabledDriftTypes:   []domain.DriftType{domain.DriftOwnership},
				EnabledInputSources: []domain.SourceType{domain.SourceGitHubPR},
			},
		}
		Expect(ws.DriftTypeEnabled(domain.DriftOwnership)).To(BeTrue())
		Expect(ws.DriftTypeEnabled(domain.DriftProcess)).To(BeFalse())
		Expect(ws.SourceEnabled(domain.SourceGitHubPR)).To(BeTrue())
		Expect(ws.SourceEnabled(domain.SourceSlackCluster)).To(BeFalse())
	})
})
