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

package notification_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/notification"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

var _ = Describe("Sanitizer", func() {
	sanitizer := notification.NewSanitizer()

	It("redacts a password assignment", func() {
		result, err := sanitizer.SanitizeWithFallback("password: secret123")
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(ContainSubstring("***REDACTED***"))
		Expect(result).NotTo(ContainSubstring("secret123"))
	})

	It("leaves ordinary text untouched", func() {
		result, err := sanitizer.SanitizeWithFallback("Drift candidate routed P1 to #team-channel")
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal("Drift candidate routed P1 to #team-channel"))
	})
})

var _ = Describe("RenderProposalPost", func() {
	It("includes the drift id, style and summary", func() {
		body := notification.RenderProposalPost("drift-1", "add_note", "Runbook step 3 is stale")
		Expect(body).To(ContainSubstring("drift-1"))
		Expect(body).To(ContainSubstring("add_note"))
		Expect(body).To(ContainSubstring("Runbook step 3 is stale"))
	})
})
