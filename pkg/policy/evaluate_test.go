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

package policy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/policy"
)

var _ = Describe("Evaluator", func() {
	reg := policy.NewRegistry()
	eval := policy.NewEvaluator(reg)

	It("blocks a PR that bumps only the patch version of openapi.yaml (scenario 5)", func() {
		pack := &policy.Pack{
			Metadata: policy.Metadata{ID: "p1", ScopeMergeStrategy: policy.MergeMostRestrictive},
			Rules: []policy.Rule{{
				ID: "openapi-bump", Enabled: true,
				Trigger: policy.Trigger{AnyChangedPaths: []string{"openapi/openapi.yaml"}},
				Obligations: []policy.Obligation{{
					ComparatorID: "openapi.version_bump", Params: map[string]interface{}{"minBump": "minor"},
					Severity: "critical", DecisionOnFail: policy.DecisionBlock,
				}},
			}},
		}
		ctx := policy.EvalContext{
			ChangedFiles:      []string{"openapi/openapi.yaml"},
			OpenAPIOldVersion: "1.2.3",
			OpenAPINewVersion: "1.2.4",
		}
		findings, err := eval.Evaluate(pack, ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(findings).To(HaveLen(1))
		Expect(findings[0].Passed).To(BeFalse())
		Expect(findings[0].Decision).To(Equal(policy.DecisionBlock))
	})

	It("passes a PR that bumps the minor version", func() {
		pack := &policy.Pack{
			Metadata: policy.Metadata{ID: "p1"},
			Rules: []policy.Rule{{
				ID: "openapi-bump", Enabled: true,
				Trigger:     policy.Trigger{AnyChangedPaths: []string{"openapi/openapi.yaml"}},
				Obligations: []policy.Obligation{{ComparatorID: "openapi.version_bump", Params: map[string]interface{}{"minBump": "minor"}, DecisionOnFail: policy.DecisionBlock}},
			}},
		}
		ctx := policy.EvalContext{ChangedFiles: []string{"openapi/openapi.yaml"}, OpenAPIOldVersion: "1.2.3", OpenAPINewVersion: "1.3.0"}
		findings, err := eval.Evaluate(pack, ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(findings[0].Passed).To(BeTrue())
	})

	It("evaluates a fact-based condition equivalently to its comparator translation", func() {
		cond := &policy.Condition{Fact: "pr.approvals.count", Operator: policy.OpGte, Value: float64(2)}
		ok, err := policy.EvaluateCondition(policy.EvalContext{ApprovalsCount: 2}.Facts(), cond)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = policy.EvaluateCondition(policy.EvalContext{ApprovalsCount: 1}.Facts(), cond)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("skips all rules when skipIf matches a label", func() {
		pack := &policy.Pack{
			Metadata:   policy.Metadata{ID: "p1"},
			Evaluation: policy.Evaluation{SkipIf: &policy.SkipIf{Labels: []string{"skip-drift-check"}}},
			Rules: []policy.Rule{{
				ID: "r", Enabled: true, Trigger: policy.Trigger{Always: true},
				Obligations: []policy.Obligation{{ComparatorID: "no_secrets_in_diff", DecisionOnFail: policy.DecisionBlock}},
			}},
		}
		findings, err := eval.Evaluate(pack, policy.EvalContext{Labels: []string{"skip-drift-check"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(findings).To(BeEmpty())
	})
})

var _ = Describe("Merge", func() {
	It("MOST_RESTRICTIVE: a block from either pack wins", func() {
		packs := []*policy.Pack{
			{Metadata: policy.Metadata{ID: "a", ScopeMergeStrategy: policy.MergeMostRestrictive}},
			{Metadata: policy.Metadata{ID: "b", ScopeMergeStrategy: policy.MergeMostRestrictive}},
		}
		findings := [][]policy.Finding{
			{{RuleID: "r1", Decision: policy.DecisionWarn}},
			{{RuleID: "r1", Decision: policy.DecisionBlock}},
		}
		result := policy.Merge(packs, findings)
		Expect(result.Findings).To(HaveLen(1))
		Expect(result.Findings[0].Decision).To(Equal(policy.DecisionBlock))
		Expect(result.Conflicts).To(BeEmpty())
	})

	It("falls back to MOST_RESTRICTIVE on an EXPLICIT/other strategy conflict", func() {
		packs := []*policy.Pack{
			{Metadata: policy.Metadata{ID: "a", ScopeMergeStrategy: policy.MergeExplicit}},
			{Metadata: policy.Metadata{ID: "b", ScopeMergeStrategy: policy.MergeMostRestrictive}},
		}
		findings := [][]policy.Finding{
			{{RuleID: "r1", Decision: policy.DecisionWarn}},
			{{RuleID: "r1", Decision: policy.DecisionBlock}},
		}
		result := policy.Merge(packs, findings)
		Expect(result.Findings[0].Decision).To(Equal(policy.DecisionBlock))
		Expect(result.Conflicts).To(HaveLen(1))
		Expect(result.Conflicts[0].Kind).To(Equal("merge_strategy_conflict"))
	})

	It("HIGHEST_PRIORITY: the higher scopePriority pack's obligation wins", func() {
		packs := []*policy.Pack{
			{Metadata: policy.Metadata{ID: "a", ScopeMergeStrategy: policy.MergeHighestPriority, ScopePriority: 1}},
			{Metadata: policy.Metadata{ID: "b", ScopeMergeStrategy: policy.MergeHighestPriority, ScopePriority: 5}},
		}
		findings := [][]policy.Finding{
			{{RuleID: "r1", Decision: policy.DecisionBlock}},
			{{RuleID: "r1", Decision: policy.DecisionPass}},
		}
		result := policy.Merge(packs, findings)
		Expect(result.Findings[0].Decision).To(Equal(policy.DecisionPass))
	})
})
