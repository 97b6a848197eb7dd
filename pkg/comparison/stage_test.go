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
	"context"
	"errors"
	"sync/atomic"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/comparison"
	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/domain"
)

type fakeBundleStore struct {
	bundle  *domain.EvidenceBundle
	written []*domain.EvidenceBundle
}

func (f *fakeBundleStore) Bundle(ctx context.Context, workspaceID, bundleID string) (*domain.EvidenceBundle, error) {
	return f.bundle, nil
}
func (f *fakeBundleStore) WriteBundle(ctx context.Context, workspaceID string, b *domain.EvidenceBundle) error {
	f.written = append(f.written, b)
	return nil
}

type fakeDocAdapter struct {
	fetchCount atomic.Int32
	content    string
	err        error
}

func (f *fakeDocAdapter) Fetch(ctx context.Context, ref docadapter.DocRef) (*docadapter.DocFetchResult, error) {
	f.fetchCount.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &docadapter.DocFetchResult{Content: f.content, BaseRevision: "rev-1"}, nil
}
func (f *fakeDocAdapter) WritePatch(ctx context.Context, params docadapter.WriteParams) (*docadapter.WriteResult, error) {
	return &docadapter.WriteResult{}, nil
}
func (f *fakeDocAdapter) SupportsDirectWriteback() bool       { return true }
func (f *fakeDocAdapter) DocURL(ref docadapter.DocRef) string { return "" }

var _ = Describe("CompareStage", func() {
	var registry *docadapter.Registry

	BeforeEach(func() {
		registry = docadapter.NewRegistry()
	})

	It("falls through to the next ranked candidate when the top one fails to fetch", func() {
		failing := &fakeDocAdapter{err: errors.New("not found")}
		ok := &fakeDocAdapter{content: "# runbook\ncommand: kubectl apply -f deploy.yaml"}
		registry.Register(docadapter.SystemConfluence, failing)
		registry.Register(docadapter.SystemNotion, ok)

		stage := comparison.NewCompareStage(&fakeBundleStore{
			bundle: &domain.EvidenceBundle{BundleID: "b-1", SourceEvidence: domain.BaselineArtifacts{Commands: []string{"kubectl apply -f deploy.yaml"}}},
		}, registry, logr.Discard())

		cand := &domain.DriftCandidate{
			WorkspaceID: "ws-1", EvidenceBundleID: "b-1",
			DocCandidates: []domain.DocRef{
				{AdapterType: "confluence", ExternalID: "p1"},
				{AdapterType: "notion", ExternalID: "p2"},
			},
		}

		next, err := stage.Handle(context.Background(), cand)
		Expect(err).ToNot(HaveOccurred())
		Expect(next).To(Equal(domain.StateCompared))
		Expect(cand.ComparisonResult).ToNot(BeNil())
		Expect(ok.fetchCount.Load()).To(BeNumerically(">=", int32(1)))
	})

	It("returns an error when every ranked candidate fails to fetch", func() {
		failing := &fakeDocAdapter{err: errors.New("unavailable")}
		registry.Register(docadapter.SystemConfluence, failing)

		stage := comparison.NewCompareStage(&fakeBundleStore{
			bundle: &domain.EvidenceBundle{BundleID: "b-1"},
		}, registry, logr.Discard())

		cand := &domain.DriftCandidate{
			WorkspaceID: "ws-1", EvidenceBundleID: "b-1",
			DocCandidates: []domain.DocRef{{AdapterType: "confluence", ExternalID: "p1"}},
		}

		_, err := stage.Handle(context.Background(), cand)
		Expect(err).To(HaveOccurred())
	})
})
