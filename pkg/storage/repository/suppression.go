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
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
)

type suppressionRuleRow struct {
	ID          string     `db:"id"`
	WorkspaceID string     `db:"workspace_id"`
	Fingerprint string     `db:"fingerprint"`
	Level       string     `db:"level"`
	Reason      string     `db:"reason"`
	CreatedBy   string     `db:"created_by"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (row suppressionRuleRow) toDomain() *domain.SuppressionRule {
	return &domain.SuppressionRule{
		ID: row.ID, WorkspaceID: row.WorkspaceID, Fingerprint: row.Fingerprint,
		Level: domain.SuppressionLevel(row.Level), Reason: row.Reason,
		CreatedBy: row.CreatedBy, ExpiresAt: row.ExpiresAt, CreatedAt: row.CreatedAt,
	}
}

// ActiveRule satisfies pkg/routing.SuppressionStore, returning the
// unexpired rule at this fingerprint level if one exists.
func (r *Repository) ActiveRule(ctx context.Context, workspaceID, fingerprint string, level domain.SuppressionLevel) (*domain.SuppressionRule, error) {
	var row suppressionRuleRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM suppression_rules
		WHERE workspace_id=$1 AND fingerprint=$2 AND level=$3
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at DESC LIMIT 1`, workspaceID, fingerprint, string(level))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, drifterrors.NewDatabaseError("active_suppression_rule", err)
	}
	return row.toDomain(), nil
}

// RejectionCount satisfies pkg/routing.SuppressionStore.
func (r *Repository) RejectionCount(ctx context.Context, workspaceID, fingerprint string, level domain.SuppressionLevel) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT count FROM suppression_rejection_counts
		WHERE workspace_id=$1 AND fingerprint=$2 AND level=$3`, workspaceID, fingerprint, string(level))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, drifterrors.NewDatabaseError("rejection_count", err)
	}
	return count, nil
}

// RecordRejection satisfies pkg/routing.SuppressionStore, upserting the
// per-fingerprint rejection counter and returning its new value so the
// caller (pkg/routing.RecordRejection) can decide whether to escalate.
func (r *Repository) RecordRejection(ctx context.Context, workspaceID, fingerprint string, level domain.SuppressionLevel) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		INSERT INTO suppression_rejection_counts (workspace_id, fingerprint, level, count)
		VALUES ($1,$2,$3,1)
		ON CONFLICT (workspace_id, fingerprint, level)
		DO UPDATE SET count = suppression_rejection_counts.count + 1
		RETURNING count`, workspaceID, fingerprint, string(level))
	if err != nil {
		return 0, drifterrors.NewDatabaseError("record_rejection", err)
	}
	return count, nil
}

// CreateRule satisfies pkg/routing.SuppressionStore, installing an
// escalated suppression rule.
func (r *Repository) CreateRule(ctx context.Context, rule *domain.SuppressionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suppression_rules (id, workspace_id, fingerprint, level, reason, created_by, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rule.ID, rule.WorkspaceID, rule.Fingerprint, string(rule.Level), rule.Reason, rule.CreatedBy, rule.ExpiresAt)
	if err != nil {
		return drifterrors.NewDatabaseError("create_suppression_rule", err)
	}
	return nil
}
