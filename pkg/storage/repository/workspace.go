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

type workspaceRow struct {
	ID                        string  `db:"id"`
	Name                      string  `db:"name"`
	HighConfidenceThreshold   float64 `db:"high_confidence_threshold"`
	MediumConfidenceThreshold float64 `db:"medium_confidence_threshold"`
	MaterialityThreshold      float64 `db:"materiality_threshold"`
	AutoApproveThreshold      float64 `db:"auto_approve_threshold"`
	OwnershipSourceRanking    []byte  `db:"ownership_source_ranking"`
	WorkflowPreferences       []byte  `db:"workflow_preferences"`
	DefaultOwnerRef           string  `db:"default_owner_ref"`
	DefaultOwnerSlackID       string  `db:"default_owner_slack_id"`
	CreatedAt                 time.Time `db:"created_at"`
}

// Workspace satisfies every package's WorkspaceReader/WorkspaceStore
// (pkg/signal, pkg/docresolve, pkg/routing): one read, many interfaces.
func (r *Repository) Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	var row workspaceRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM workspaces WHERE id=$1`, workspaceID)
	if err != nil {
		return nil, drifterrors.NewNotFoundError("workspace")
	}
	ws := &domain.Workspace{
		ID: row.ID, Name: row.Name,
		HighConfidenceThreshold: row.HighConfidenceThreshold, MediumConfidenceThreshold: row.MediumConfidenceThreshold,
		MaterialityThreshold: row.MaterialityThreshold, DefaultOwnerRef: row.DefaultOwnerRef,
		CreatedAt: row.CreatedAt,
	}
	if err := unmarshalInto(row.OwnershipSourceRanking, &ws.OwnershipSourceRanking); err != nil {
		return nil, err
	}
	if err := unmarshalInto(row.WorkflowPreferences, &ws.WorkflowPreferences); err != nil {
		return nil, err
	}
	return ws, nil
}

// OwnerSlackID resolves an owner reference (a CODEOWNERS entry, a team
// name) to the Slack user ID the routing stage DMs.
func (r *Repository) OwnerSlackID(ctx context.Context, workspaceID, ownerRef string) (string, error) {
	var slackID string
	err := r.db.GetContext(ctx, &slackID, `SELECT slack_id FROM workspace_owners WHERE workspace_id=$1 AND owner_ref=$2`, workspaceID, ownerRef)
	if err != nil {
		var fallback string
		if fbErr := r.db.GetContext(ctx, &fallback, `SELECT default_owner_slack_id FROM workspaces WHERE id=$1`, workspaceID); fbErr != nil {
			return "", drifterrors.NewDatabaseError("owner_slack_id", err)
		}
		return fallback, nil
	}
	return slackID, nil
}

// AutoApproveThreshold reads the workspace's auto-approve confidence
// floor. It is stored alongside, not inside,
// domain.Workspace because it gates a pipeline action rather than
// describing the tenant itself.
func (r *Repository) AutoApproveThreshold(ctx context.Context, workspaceID string) (float64, error) {
	var threshold float64
	err := r.db.GetContext(ctx, &threshold, `SELECT auto_approve_threshold FROM workspaces WHERE id=$1`, workspaceID)
	if err != nil {
		return 0, drifterrors.NewDatabaseError("auto_approve_threshold", err)
	}
	return threshold, nil
}
