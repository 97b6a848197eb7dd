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

// NextPlanVersion satisfies pkg/patch.PlanWriter, handing PlanStage a
// monotonically increasing version number per candidate without a side table
// — the counter lives on the candidate row itself.
func (r *Repository) NextPlanVersion(ctx context.Context, workspaceID, driftID string) (int, error) {
	var version int
	err := r.db.GetContext(ctx, &version, `
		UPDATE drift_candidates SET active_plan_version = active_plan_version + 1
		WHERE workspace_id=$1 AND id=$2
		RETURNING active_plan_version`, workspaceID, driftID)
	if err != nil {
		return 0, drifterrors.NewDatabaseError("next_plan_version", err)
	}
	return version, nil
}

type proposalRow struct {
	ID               string     `db:"id"`
	DriftID          string     `db:"drift_id"`
	DocRef           []byte     `db:"doc_ref"`
	BaseRevision     string     `db:"base_revision"`
	ProposedContent  string     `db:"proposed_content"`
	Style            string     `db:"style"`
	Confidence       float64    `db:"confidence"`
	Status           string     `db:"status"`
	SlackMessageTS   string     `db:"slack_message_ts"`
	SlackChannelID   string     `db:"slack_channel_id"`
	RejectionReason  string     `db:"rejection_reason"`
	RejectionTags    []byte     `db:"rejection_tags"`
	ResolvedBy       string     `db:"resolved_by"`
	ResolvedAt       *time.Time `db:"resolved_at"`
	LastNotifiedAt   *time.Time `db:"last_notified_at"`
	FindingsAttached []byte     `db:"findings_attached"`
	CreatedAt        time.Time  `db:"created_at"`
}

func (row proposalRow) toDomain() (*domain.PatchProposal, error) {
	p := &domain.PatchProposal{
		ID: row.ID, DriftID: row.DriftID, BaseRevision: row.BaseRevision,
		ProposedContent: row.ProposedContent, Style: domain.PatchStyle(row.Style),
		Confidence: row.Confidence, Status: domain.PatchProposalStatus(row.Status),
		SlackMessageTS: row.SlackMessageTS, SlackChannelID: row.SlackChannelID,
		RejectionReason: row.RejectionReason, ResolvedBy: row.ResolvedBy,
		ResolvedAt: row.ResolvedAt, LastNotifiedAt: row.LastNotifiedAt,
	}
	if err := unmarshalInto(row.DocRef, &p.DocRef); err != nil {
		return nil, err
	}
	if err := unmarshalInto(row.RejectionTags, &p.RejectionTags); err != nil {
		return nil, err
	}
	if err := unmarshalInto(row.FindingsAttached, &p.FindingsAttached); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProposal satisfies pkg/patch.ProposalWriter.
func (r *Repository) CreateProposal(ctx context.Context, p *domain.PatchProposal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patch_proposals (id, drift_id, doc_ref, base_revision, proposed_content, style, confidence, status, findings_attached)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.DriftID, marshalOrNull(p.DocRef), p.BaseRevision, p.ProposedContent,
		string(p.Style), p.Confidence, string(p.Status), marshalOrNull(p.FindingsAttached))
	if err != nil {
		return drifterrors.NewDatabaseError("create_proposal", err)
	}
	return nil
}

// ProposalForDrift satisfies pkg/notification.ProposalStore and
// pkg/writeback.ProposalStore — each drift candidate carries at most one
// live proposal at a time, so the latest row is always the right one.
func (r *Repository) ProposalForDrift(ctx context.Context, driftID string) (*domain.PatchProposal, error) {
	var row proposalRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM patch_proposals WHERE drift_id=$1 ORDER BY created_at DESC LIMIT 1`, driftID)
	if err != nil {
		return nil, drifterrors.NewNotFoundError("patch_proposal")
	}
	return row.toDomain()
}

// RecordSlackMessage satisfies pkg/notification.ProposalStore, stamping
// the channel/timestamp a proposal was posted under so later updates can
// edit the same message in place.
func (r *Repository) RecordSlackMessage(ctx context.Context, proposalID, channelID, timestamp string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE patch_proposals SET slack_channel_id=$1, slack_message_ts=$2, last_notified_at=now()
		WHERE id=$3`, channelID, timestamp, proposalID)
	if err != nil {
		return drifterrors.NewDatabaseError("record_slack_message", err)
	}
	return nil
}

// UpdateProposal satisfies pkg/writeback.ProposalStore, persisting the
// resolution (applied/rejected/snoozed) a human action records.
func (r *Repository) UpdateProposal(ctx context.Context, p *domain.PatchProposal) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE patch_proposals SET
			proposed_content=$1, status=$2, rejection_reason=$3, rejection_tags=$4,
			resolved_by=$5, resolved_at=$6
		WHERE id=$7`,
		p.ProposedContent, string(p.Status), p.RejectionReason, marshalOrNull(p.RejectionTags),
		p.ResolvedBy, p.ResolvedAt, p.ID)
	if err != nil {
		return drifterrors.NewDatabaseError("update_proposal", err)
	}
	return nil
}
