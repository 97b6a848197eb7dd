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

package signal

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// EventStore is the minimal read surface NormalizeStage needs on the
// SignalEvent created at webhook ingest.
type EventStore interface {
	SignalEvent(ctx context.Context, workspaceID, signalEventID string) (*domain.SignalEvent, error)
}

// NormalizeStage is the fsm.StageHandler for domain.StateIngested. It
// re-validates the already-normalized SignalEvent's required fields
// — normalization itself has already happened at webhook
// ingest, since the SignalEvent's uniqueness invariant must be checked
// before a DriftCandidate is created at all. This stage is the
// durable re-confirmation that the stored payload still satisfies its
// source's schema before the pipeline commits to processing it.
type NormalizeStage struct {
	events EventStore
	log    logr.Logger
}

func NewNormalizeStage(events EventStore, log logr.Logger) *NormalizeStage {
	return &NormalizeStage{events: events, log: log}
}

func (s *NormalizeStage) State() domain.State { return domain.StateIngested }

func (s *NormalizeStage) Handle(ctx context.Context, cand *domain.DriftCandidate) (domain.State, error) {
	evt, err := s.events.SignalEvent(ctx, cand.WorkspaceID, cand.SignalEventID)
	if err != nil {
		return cand.State, err
	}

	if err := ValidateExtracted(evt.SourceType, evt.Extracted); err != nil {
		return cand.State, err
	}

	cand.SourceType = evt.SourceType
	cand.Service = evt.Service
	cand.Repo = evt.Repo

	s.log.V(1).Info("signal normalized", "sourceType", evt.SourceType, "driftId", cand.ID)
	return domain.StateNormalized, nil
}
