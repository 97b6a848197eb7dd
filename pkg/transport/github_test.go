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

package transport_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/transport"
)

func TestTransport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transport Suite")
}

var _ = Describe("GitHubContentClient", func() {
	It("decodes base64 file content from the contents API", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"content":  base64.StdEncoding.EncodeToString([]byte("# runbook\n")),
				"sha":      "abc123",
				"html_url": "https://github.com/acme/repo/blob/main/runbook.md",
			})
		}))
		defer server.Close()

		client := transport.NewGitHubContentClientWithBaseURL(server.Client(), server.URL)

		content, sha, url, err := client.GetFile(context.Background(), "acme/repo", "runbook.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(content).To(Equal("# runbook\n"))
		Expect(sha).To(Equal("abc123"))
		Expect(url).To(Equal("https://github.com/acme/repo/blob/main/runbook.md"))
	})

	It("surfaces non-2xx responses as a network AppError", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		}))
		defer server.Close()

		client := transport.NewGitHubContentClientWithBaseURL(server.Client(), server.URL)

		_, _, _, err := client.GetFile(context.Background(), "acme/repo", "missing.md")
		Expect(err).To(HaveOccurred())
	})
})
