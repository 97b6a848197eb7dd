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
	"context"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/evidence"
)

type fakeWriter struct {
	events  map[string]*domain.SignalEvent
	written []*domain.EvidenceBundle
}

func (w *fakeWriter) SignalEvent(ctx context.Context, workspaceID, signalEventID string) (*domain.SignalEvent, error) {
	evt, ok := w.events[signalEventID]
	if !ok {
		return nil, drifterrors.NewNotFoundError("signal event")
	}
	return evt, nil
}

func (w *fakeWriter) WriteBundle(ctx context.Context, workspaceID string, b *domain.EvidenceBundle) error {
	w.written = append(w.written, b)
	return nil
}

var _ = Describe("BuildStage", func() {
	It("builds and persists a source-side evidence bundle, advancing to EVIDENCE_BUILT", func() {
		writer := &fakeWriter{events: map[string]*domain.SignalEvent{
			"evt-1": {
				ID:         "evt-1",
				SourceType: domain.SourceGitHubPR,
				Extracted: domain.ExtractedPayload{
					GitHubPR: &domain.GitHubPRExtracted{
						Diff:         "+ $ kubectl rollout restart deploy/api",
						ChangedFiles: []domain.ChangedFile{{Path: "runbook.md"}},
					},
				},
			},
		}}
		stage := evidence.NewBuildStage(writer, logr.Discard())
		cand := &domain.DriftCandidate{ID: "d1", SignalEventID: "evt-1", State: domain.StateNormalized}

		next, err := stage.Handle(context.Background(), cand)

		Expect(err).NotTo(HaveOccurred())
		Expect(next).To(Equal(domain.StateEvidenceBuilt))
		Expect(cand.EvidenceBundleID).NotTo(BeEmpty())
		Expect(writer.written).To(HaveLen(1))
		Expect(writer.written[0].SourceEvidence.Tools).To(ContainElement("k8s_tool"))
	})

	It("fails with a validation error when the signal event's payload is missing", func() {
		writer := &fakeWriter{events: map[string]*domain.SignalEvent{
			"evt-bad": {ID: "evt-bad", SourceType: domain.SourceGitHubPR},
		}}
		stage := evidence.NewBuildStage(writer, logr.Discard())
		cand := &domain.DriftCandidate{ID: "d2", SignalEventID: "evt-bad", State: domain.StateNormalized}

		_, err := stage.Handle(context.Background(), cand)
		Expect(err).To(HaveOccurred())
	})
})
