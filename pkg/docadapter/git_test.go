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

package docadapter_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/docadapter"
)

type fakeGitClient struct {
	branches map[string]bool
	commits  int
	prNumber int
}

func (c *fakeGitClient) GetFile(ctx context.Context, repo, path string) (string, string, string, error) {
	return "# Readme\n", "sha-1", "https://example.com/" + repo + "/" + path, nil
}

func (c *fakeGitClient) CreateBranch(ctx context.Context, repo, branchName, fromSHA string) error {
	if c.branches == nil {
		c.branches = map[string]bool{}
	}
	c.branches[branchName] = true
	return nil
}

func (c *fakeGitClient) CommitFile(ctx context.Context, repo, branch, path, content, message string) (string, error) {
	c.commits++
	return "sha-2", nil
}

func (c *fakeGitClient) OpenPullRequest(ctx context.Context, repo, branch, title, body string) (int, string, error) {
	c.prNumber = 17
	return c.prNumber, "https://example.com/" + repo + "/pull/17", nil
}

var _ = Describe("GitBackedAdapter", func() {
	It("does not support direct writeback", func() {
		a := docadapter.NewGitBackedAdapter(docadapter.SystemGitHubMD, &fakeGitClient{})
		Expect(a.SupportsDirectWriteback()).To(BeFalse())
	})

	It("rejects WritePatch outright", func() {
		a := docadapter.NewGitBackedAdapter(docadapter.SystemGitHubMD, &fakeGitClient{})
		_, err := a.WritePatch(context.Background(), docadapter.WriteParams{})
		Expect(err).To(HaveOccurred())
	})

	// createPatchPR opens branch, commits, opens PR.
	It("creates a branch, commits the patch, and opens a pull request", func() {
		client := &fakeGitClient{}
		a := docadapter.NewGitBackedAdapter(docadapter.SystemGitHubMD, client)

		res, err := a.CreatePatchPR(context.Background(), docadapter.PRParams{
			Ref:          docadapter.DocRef{System: docadapter.SystemGitHubMD, Repo: "acme/checkout", Path: "README.md"},
			BaseRevision: "sha-1",
			NewContent:   "# Readme\nUpdated.\n",
			Title:        "docs: update README",
			BranchName:   "drift-agent/readme-update",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.PRNumber).To(Equal(17))
		Expect(client.branches).To(HaveKey("drift-agent/readme-update"))
		Expect(client.commits).To(Equal(1))
	})
})

var _ = Describe("Registry", func() {
	It("resolves a registered adapter by system kind", func() {
		reg := docadapter.NewRegistry()
		wiki := docadapter.NewWikiAdapter(docadapter.SystemConfluence, &fakeWikiClient{})
		reg.Register(docadapter.SystemConfluence, wiki)

		got, err := reg.For(docadapter.SystemConfluence)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(wiki))
	})

	It("returns a not-found error for an unregistered system", func() {
		reg := docadapter.NewRegistry()
		_, err := reg.For(docadapter.SystemGitBook)
		Expect(err).To(HaveOccurred())
	})
})
