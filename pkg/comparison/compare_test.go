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

package comparison_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/comparison"
	"github.com/driftsentry/driftcore/pkg/domain"
)

func TestComparison(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Comparison Engine Suite")
}

var _ = Describe("Compare", func() {
	It("reports no drift when source and target artifacts match", func() {
		art := domain.BaselineArtifacts{Commands: []string{"kubectl apply -f deploy.yaml"}}
		result := comparison.Compare(art, art)
		Expect(result.HasDrift).To(BeFalse())
	})

	It("detects instruction drift when the source has an undocumented command", func() {
		source := domain.BaselineArtifacts{Commands: []string{"kubectl apply -f deploy.yaml"}}
		target := domain.BaselineArtifacts{}

		result := comparison.Compare(source, target)

		Expect(result.HasDrift).To(BeTrue())
		Expect(result.DriftType).To(Equal(domain.DriftInstruction))
		Expect(result.NewContent).To(ContainElement("kubectl apply -f deploy.yaml"))
	})

	It("detects ownership drift when the source has a responder not reflected in the doc", func() {
		source := domain.BaselineArtifacts{Owners: []string{"alice"}}
		target := domain.BaselineArtifacts{Owners: []string{"bob"}}

		result := comparison.Compare(source, target)

		Expect(result.DriftType).To(Equal(domain.DriftOwnership))
		Expect(result.Recommendation).To(Equal(domain.StyleUpdateOwnership))
	})

	// tie-break ownership > instruction > environment > process.
	It("prefers ownership over instruction when both drift types fire", func() {
		source := domain.BaselineArtifacts{
			Owners:   []string{"alice"},
			Commands: []string{"kubectl apply -f deploy.yaml"},
		}
		target := domain.BaselineArtifacts{}

		result := comparison.Compare(source, target)

		Expect(result.DriftType).To(Equal(domain.DriftOwnership))
		Expect(result.AllDriftTypes).To(ConsistOf(domain.DriftOwnership, domain.DriftInstruction))
	})

	It("reports coverage gaps orthogonally, alongside a detected drift type", func() {
		source := domain.BaselineArtifacts{
			Owners:    []string{"alice"},
			Scenarios: []string{"rollback during deploy"},
		}
		target := domain.BaselineArtifacts{}

		result := comparison.Compare(source, target)

		Expect(result.HasDrift).To(BeTrue())
		Expect(result.HasCoverageGap).To(BeTrue())
		Expect(result.CoverageGaps).To(ContainElement("rollback during deploy"))
	})

	It("reports only a coverage gap with no drift type when nothing else differs", func() {
		source := domain.BaselineArtifacts{Scenarios: []string{"new edge case"}}
		target := domain.BaselineArtifacts{}

		result := comparison.Compare(source, target)

		Expect(result.HasDrift).To(BeFalse())
		Expect(result.HasCoverageGap).To(BeTrue())
	})
})

var _ = Describe("AdjustConfidence", func() {
	hints := comparison.KeywordHints{
		Positive: []string{"breaking change", "migration", "deprecated"},
		Negative: []string{"typo", "formatting"},
	}

	// +0.10 for >=3 positive keywords and no negatives.
	It("boosts confidence by 0.10 when 3+ positive keywords and no negatives are present", func() {
		text := "this is a breaking change requiring a migration; field is deprecated"
		got := comparison.AdjustConfidence(0.5, text, hints)
		Expect(got).To(BeNumerically("~", 0.6, 0.001))
	})

	// -0.15 for >=2 negative keywords.
	It("penalizes confidence by 0.15 when 2+ negative keywords are present", func() {
		text := "just fixing a typo and some formatting"
		got := comparison.AdjustConfidence(0.5, text, hints)
		Expect(got).To(BeNumerically("~", 0.35, 0.001))
	})

	It("leaves confidence unchanged with fewer than 3 positive keywords", func() {
		text := "breaking change only"
		got := comparison.AdjustConfidence(0.5, text, hints)
		Expect(got).To(BeNumerically("~", 0.5, 0.001))
	})

	It("clamps the boosted confidence to 1.0", func() {
		text := "breaking change migration deprecated"
		got := comparison.AdjustConfidence(0.95, text, hints)
		Expect(got).To(Equal(1.0))
	})

	It("clamps the penalized confidence to 0.0", func() {
		text := "typo formatting"
		got := comparison.AdjustConfidence(0.05, text, hints)
		Expect(got).To(Equal(0.0))
	})
})

var _ = Describe("BoostFromJoiner", func() {
	It("adds the joiner boost and clamps to 1.0", func() {
		Expect(comparison.BoostFromJoiner(0.9, 0.15)).To(Equal(1.0))
	})

	It("adds a small boost without clamping", func() {
		Expect(comparison.BoostFromJoiner(0.5, 0.1)).To(BeNumerically("~", 0.6, 0.001))
	})
})
