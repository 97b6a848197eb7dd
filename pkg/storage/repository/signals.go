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

package repository

import (
	"context"
	"time"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
)

type signalEventRow struct {
	ID          string    `db:"id"`
	WorkspaceID string    `db:"workspace_id"`
	SourceType  string    `db:"source_type"`
	OccurredAt  time.Time `db:"occurred_at"`
	Service     string    `db:"service"`
	Repo        string    `db:"repo"`
	Severity    string    `db:"severity"`
	Extracted   []byte    `db:"extracted"`
	RawPayload  []byte    `db:"raw_payload"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row signalEventRow) toDomain() (domain.SignalEvent, error) {
	ev := domain.SignalEvent{
		ID: row.ID, WorkspaceID: row.WorkspaceID, SourceType: domain.SourceType(row.SourceType),
		OccurredAt: row.OccurredAt, Service: row.Service, Repo: row.Repo, Severity: row.Severity,
		RawPayload: row.RawPayload, CreatedAt: row.CreatedAt,
	}
	if err := unmarshalInto(row.Extracted, &ev.Extracted); err != nil {
		return ev, err
	}
	return ev, nil
}

// SignalEvent satisfies pkg/signal.EventStore and pkg/evidence.Writer's
// narrow read of the source signal.
func (r *Repository) SignalEvent(ctx context.Context, workspaceID, signalEventID string) (*domain.SignalEvent, error) {
	var row signalEventRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM signal_events WHERE workspace_id=$1 AND id=$2`, workspaceID, signalEventID)
	if err != nil {
		return nil, drifterrors.NewNotFoundError("signal_event")
	}
	ev, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Anchor loads the triggering signal event for the Signal Joiner (C7),
// regardless of its workspace, matching routing.SignalStore's by-ID
// lookup.
func (r *Repository) Anchor(ctx context.Context, signalEventID string) (domain.SignalEvent, error) {
	var row signalEventRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM signal_events WHERE id=$1`, signalEventID)
	if err != nil {
		return domain.SignalEvent{}, drifterrors.NewNotFoundError("signal_event")
	}
	return row.toDomain()
}

// Recent supplies the same-service signal history the Signal Joiner
// correlates the anchor against within window.
func (r *Repository) Recent(ctx context.Context, workspaceID, service string, window time.Duration) ([]domain.SignalEvent, error) {
	var rows []signalEventRow
	cutoff := time.Now().Add(-window)
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM signal_events
		WHERE workspace_id=$1 AND service=$2 AND occurred_at >= $3
		ORDER BY occurred_at DESC`, workspaceID, service, cutoff)
	if err != nil {
		return nil, drifterrors.NewDatabaseError("recent_signals", err)
	}
	events := make([]domain.SignalEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
