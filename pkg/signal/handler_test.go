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

package signal_test

import (
	"context"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/signal"
)

type fakeEventStore struct {
	events map[string]*domain.SignalEvent
}

func (s *fakeEventStore) SignalEvent(ctx context.Context, workspaceID, signalEventID string) (*domain.SignalEvent, error) {
	evt, ok := s.events[signalEventID]
	if !ok {
		return nil, drifterrors.NewNotFoundError("signal event")
	}
	return evt, nil
}

var _ = Describe("NormalizeStage", func() {
	var store *fakeEventStore

	BeforeEach(func() {
		store = &fakeEventStore{events: map[string]*domain.SignalEvent{
			"evt-1": {
				ID:         "evt-1",
				SourceType: domain.SourceGitHubPR,
				Service:    "checkout",
				Repo:       "acme/checkout",
				Extracted: domain.ExtractedPayload{
					GitHubPR: &domain.GitHubPRExtracted{
						ChangedFiles: []domain.ChangedFile{{Path: "runbook.md"}},
						TotalChanges: 2,
						Diff:         "diff --git a/runbook.md b/runbook.md",
					},
				},
			},
			"evt-bad": {
				ID:         "evt-bad",
				SourceType: domain.SourceGitHubPR,
				Extracted:  domain.ExtractedPayload{},
			},
		}}
	})

	It("advances INGESTED to NORMALIZED and copies source metadata onto the candidate", func() {
		stage := signal.NewNormalizeStage(store, logr.Discard())
		cand := &domain.DriftCandidate{ID: "d1", SignalEventID: "evt-1", State: domain.StateIngested}

		next, err := stage.Handle(context.Background(), cand)

		Expect(err).NotTo(HaveOccurred())
		Expect(next).To(Equal(domain.StateNormalized))
		Expect(cand.Service).To(Equal("checkout"))
		Expect(cand.Repo).To(Equal("acme/checkout"))
		Expect(cand.SourceType).To(Equal(domain.SourceGitHubPR))
	})

	It("returns EXTRACTED_SCHEMA_VIOLATION and stays put for a malformed signal event", func() {
		stage := signal.NewNormalizeStage(store, logr.Discard())
		cand := &domain.DriftCandidate{ID: "d2", SignalEventID: "evt-bad", State: domain.StateIngested}

		next, err := stage.Handle(context.Background(), cand)

		Expect(err).To(HaveOccurred())
		Expect(drifterrors.GetCode(err)).To(Equal("EXTRACTED_SCHEMA_VIOLATION"))
		Expect(next).To(Equal(domain.StateIngested))
	})

	It("reports State() as INGESTED", func() {
		stage := signal.NewNormalizeStage(store, logr.Discard())
		Expect(stage.State()).To(Equal(domain.StateIngested))
	})
})
