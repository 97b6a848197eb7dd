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

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/docadapter"
)

type fakeWikiClient struct {
	content  string
	revision string
	url      string
}

func (c *fakeWikiClient) GetPage(ctx context.Context, pageID string) (string, string, string, error) {
	return c.content, c.revision, c.url, nil
}

func (c *fakeWikiClient) UpdatePage(ctx context.Context, pageID, baseRevision, newContent string) (string, error) {
	c.content = newContent
	c.revision = "rev-2"
	return c.revision, nil
}

var _ = Describe("WikiAdapter", func() {
	It("supports direct writeback", func() {
		a := docadapter.NewWikiAdapter(docadapter.SystemConfluence, &fakeWikiClient{})
		Expect(a.SupportsDirectWriteback()).To(BeTrue())
	})

	It("writes successfully when the base revision matches the current revision", func() {
		client := &fakeWikiClient{content: "old", revision: "rev-1"}
		a := docadapter.NewWikiAdapter(docadapter.SystemConfluence, client)

		res, err := a.WritePatch(context.Background(), docadapter.WriteParams{
			Ref:          docadapter.DocRef{System: docadapter.SystemConfluence, PageID: "page-1"},
			BaseRevision: "rev-1",
			NewContent:   "new",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.NewRevision).To(Equal("rev-2"))
		Expect(client.content).To(Equal("new"))
	})

	// optimistic concurrency conflict.
	It("returns a conflict error when the page moved since resolution", func() {
		client := &fakeWikiClient{content: "concurrent edit", revision: "rev-9"}
		a := docadapter.NewWikiAdapter(docadapter.SystemConfluence, client)

		_, err := a.WritePatch(context.Background(), docadapter.WriteParams{
			Ref:          docadapter.DocRef{System: docadapter.SystemConfluence, PageID: "page-1"},
			BaseRevision: "rev-1",
			NewContent:   "new",
		})

		Expect(err).To(HaveOccurred())
		Expect(drifterrors.GetType(err)).To(Equal(drifterrors.ErrorTypeConflict))
	})
})
