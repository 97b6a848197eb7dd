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

package rego_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/policy"
	regocmp "github.com/driftsentry/driftcore/pkg/policy/rego"
)

var _ = Describe("Comparator", func() {
	It("evaluates min_approvals.rego against the fact document", func() {
		cmp, err := regocmp.New(context.Background(), "min_approvals.rego", "*",
			regocmp.MinApprovalsModule, regocmp.ResultQuery)
		Expect(err).NotTo(HaveOccurred())

		outcome, err := cmp.Perform(policy.EvalContext{ApprovalsCount: 2}, map[string]interface{}{"min": 2.0})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Passed).To(BeTrue())

		outcome, err = cmp.Perform(policy.EvalContext{ApprovalsCount: 1}, map[string]interface{}{"min": 2.0})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Passed).To(BeFalse())
		Expect(outcome.Message).To(Equal("insufficient approvals"))
	})

	It("evaluates checkruns.passed.rego against the fact document", func() {
		cmp, err := regocmp.New(context.Background(), "checkruns.passed.rego", "*",
			regocmp.CheckRunsPassedModule, regocmp.ResultQuery)
		Expect(err).NotTo(HaveOccurred())

		outcome, err := cmp.Perform(policy.EvalContext{CheckRunsPassed: true}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Passed).To(BeTrue())

		outcome, err = cmp.Perform(policy.EvalContext{CheckRunsPassed: false}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Passed).To(BeFalse())
	})
})
