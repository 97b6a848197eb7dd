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

type evidenceBundleRow struct {
	BundleID         string    `db:"bundle_id"`
	DriftCandidateID string    `db:"drift_candidate_id"`
	SourceEvidence   []byte    `db:"source_evidence"`
	SourceExcerpt    string    `db:"source_excerpt"`
	TargetEvidence   []byte    `db:"target_evidence"`
	Assessment       []byte    `db:"assessment"`
	Fingerprints     []byte    `db:"fingerprints"`
	SchemaVersion    int       `db:"schema_version"`
	CreatedAt        time.Time `db:"created_at"`
}

// Bundle satisfies pkg/comparison.BundleStore and pkg/docresolve.BundleReader.
func (r *Repository) Bundle(ctx context.Context, workspaceID, bundleID string) (*domain.EvidenceBundle, error) {
	var row evidenceBundleRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM evidence_bundles WHERE workspace_id=$1 AND bundle_id=$2`, workspaceID, bundleID)
	if err != nil {
		return nil, drifterrors.NewNotFoundError("evidence_bundle")
	}
	b := &domain.EvidenceBundle{
		BundleID: row.BundleID, DriftCandidateID: row.DriftCandidateID,
		SourceExcerpt: row.SourceExcerpt, SchemaVersion: row.SchemaVersion, CreatedAt: row.CreatedAt,
	}
	if err := unmarshalInto(row.SourceEvidence, &b.SourceEvidence); err != nil {
		return nil, err
	}
	if err := unmarshalInto(row.TargetEvidence, &b.TargetEvidence); err != nil {
		return nil, err
	}
	if err := unmarshalInto(row.Assessment, &b.Assessment); err != nil {
		return nil, err
	}
	if err := unmarshalInto(row.Fingerprints, &b.Fingerprints); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteBundle inserts an EvidenceBundle. Bundles are immutable once
// written, so this is insert-only — a re-write of the same
// bundleId is a programming error the unique primary key will surface.
func (r *Repository) WriteBundle(ctx context.Context, workspaceID string, b *domain.EvidenceBundle) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO evidence_bundles (bundle_id, drift_candidate_id, workspace_id, source_evidence, source_excerpt, target_evidence, assessment, fingerprints, schema_version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.BundleID, b.DriftCandidateID, workspaceID, marshalOrNull(b.SourceEvidence), b.SourceExcerpt,
		marshalOrNull(b.TargetEvidence), marshalOrNull(b.Assessment), marshalOrNull(b.Fingerprints), b.SchemaVersion)
	if err != nil {
		return drifterrors.NewDatabaseError("write_evidence_bundle", err)
	}
	return nil
}
