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

// Package repository is the single Postgres-backed implementation of
// every narrow store interface the pipeline's stage handlers depend on
// (fsm.Repository plus each package's WorkspaceReader/SignalStore/
// PackStore/ProposalStore/etc). One struct satisfies all of them
// structurally, backing many narrow repository interfaces from a
// single sqlx handle.
package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/jmoiron/sqlx"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
	"github.com/driftsentry/driftcore/pkg/fsm"
)

// Repository is the Postgres-backed store for every pipeline entity.
type Repository struct {
	db  *sqlx.DB
	log logr.Logger

	mu      sync.Mutex
	pending map[string]*sqlx.Tx // driftID -> open LockForAdvance transaction
}

func New(db *sqlx.DB, log logr.Logger) *Repository {
	return &Repository{db: db, log: log, pending: make(map[string]*sqlx.Tx)}
}

var _ fsm.Repository = (*Repository)(nil)

type candidateRow struct {
	ID                       string          `db:"id"`
	WorkspaceID              string          `db:"workspace_id"`
	SignalEventID            string          `db:"signal_event_id"`
	State                    string          `db:"state"`
	StateUpdatedAt           time.Time       `db:"state_updated_at"`
	SourceType               string          `db:"source_type"`
	Service                  string          `db:"service"`
	Repo                     string          `db:"repo"`
	DriftType                string          `db:"drift_type"`
	ClassificationMethod     string          `db:"classification_method"`
	Confidence               float64         `db:"confidence"`
	ComparisonResult         []byte          `db:"comparison_result"`
	EvidenceBundleID         string          `db:"evidence_bundle_id"`
	DocCandidates            []byte          `db:"doc_candidates"`
	DocsResolutionStatus     string          `db:"docs_resolution_status"`
	DocsResolutionConfidence float64         `db:"docs_resolution_confidence"`
	OwnerResolution          string          `db:"owner_resolution"`
	RoutingDecision          []byte          `db:"routing_decision"`
	ActivePlanID             string          `db:"active_plan_id"`
	ActivePlanVersion        int             `db:"active_plan_version"`
	ActivePlanHash           string          `db:"active_plan_hash"`
	CorrelatedSignals        []byte          `db:"correlated_signals"`
	HasCoverageGap           bool            `db:"has_coverage_gap"`
	FingerprintStrict        string          `db:"fingerprint_strict"`
	FingerprintMedium        string          `db:"fingerprint_medium"`
	FingerprintBroad         string          `db:"fingerprint_broad"`
	RetryCount               int             `db:"retry_count"`
	LastErrorCode            string          `db:"last_error_code"`
	LastErrorMessage         string          `db:"last_error_message"`
	TraceID                  string          `db:"trace_id"`
	SnoozedUntil             *time.Time      `db:"snoozed_until"`
	CreatedAt                time.Time       `db:"created_at"`
}

func (r candidateRow) toDomain() (*domain.DriftCandidate, error) {
	cand := &domain.DriftCandidate{
		ID: r.ID, WorkspaceID: r.WorkspaceID, SignalEventID: r.SignalEventID,
		State: domain.State(r.State), StateUpdatedAt: r.StateUpdatedAt,
		SourceType: domain.SourceType(r.SourceType), Service: r.Service, Repo: r.Repo,
		DriftType: domain.DriftType(r.DriftType), ClassificationMethod: domain.ClassificationMethod(r.ClassificationMethod),
		Confidence: r.Confidence, EvidenceBundleID: r.EvidenceBundleID,
		DocsResolutionStatus: r.DocsResolutionStatus, DocsResolutionConfidence: r.DocsResolutionConfidence,
		OwnerResolution: r.OwnerResolution, ActivePlanID: r.ActivePlanID,
		ActivePlanVersion: r.ActivePlanVersion, ActivePlanHash: r.ActivePlanHash,
		HasCoverageGap: r.HasCoverageGap, FingerprintStrict: r.FingerprintStrict,
		FingerprintMedium: r.FingerprintMedium, FingerprintBroad: r.FingerprintBroad,
		RetryCount: r.RetryCount, LastErrorCode: r.LastErrorCode, LastErrorMessage: r.LastErrorMessage,
		TraceID: r.TraceID, SnoozedUntil: r.SnoozedUntil, CreatedAt: r.CreatedAt,
	}
	if err := unmarshalInto(r.ComparisonResult, &cand.ComparisonResult); err != nil {
		return nil, err
	}
	if err := unmarshalInto(r.DocCandidates, &cand.DocCandidates); err != nil {
		return nil, err
	}
	if err := unmarshalInto(r.RoutingDecision, &cand.RoutingDecision); err != nil {
		return nil, err
	}
	if err := unmarshalInto(r.CorrelatedSignals, &cand.CorrelatedSignals); err != nil {
		return nil, err
	}
	return cand, nil
}

func unmarshalInto(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func marshalOrNull(v interface{}) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// Load fetches the freshest row without acquiring the advance lock.
func (r *Repository) Load(ctx context.Context, workspaceID, driftID string) (*domain.DriftCandidate, error) {
	var row candidateRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM drift_candidates WHERE workspace_id=$1 AND id=$2`, workspaceID, driftID)
	if err != nil {
		return nil, drifterrors.NewDatabaseError("load_candidate", err)
	}
	return row.toDomain()
}

// LockForAdvance opens a transaction, selects the row FOR UPDATE so two
// workers racing on the same (workspaceId, driftId) serialize, and keeps
// that transaction open until Persist commits it.
func (r *Repository) LockForAdvance(ctx context.Context, workspaceID, driftID string) (*domain.DriftCandidate, func(), error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, drifterrors.NewDatabaseError("begin_lock_tx", err)
	}

	var row candidateRow
	err = tx.GetContext(ctx, &row, `SELECT * FROM drift_candidates WHERE workspace_id=$1 AND id=$2 FOR UPDATE`, workspaceID, driftID)
	if err != nil {
		_ = tx.Rollback()
		return nil, nil, drifterrors.NewDatabaseError("lock_candidate", err)
	}

	key := workspaceID + "/" + driftID
	r.mu.Lock()
	r.pending[key] = tx
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		if pendingTx, ok := r.pending[key]; ok && pendingTx == tx {
			delete(r.pending, key)
			_ = tx.Rollback() // no-op if Persist already committed
		}
		r.mu.Unlock()
	}

	cand, err := row.toDomain()
	if err != nil {
		release()
		return nil, nil, err
	}
	return cand, release, nil
}

// Persist writes the candidate's mutated fields and the accompanying
// audit row within the transaction LockForAdvance opened, then commits
// it.
func (r *Repository) Persist(ctx context.Context, cand *domain.DriftCandidate, audit *domain.AuditTrail) error {
	key := cand.WorkspaceID + "/" + cand.ID
	r.mu.Lock()
	tx, ok := r.pending[key]
	if ok {
		delete(r.pending, key)
	}
	r.mu.Unlock()
	if !ok {
		return drifterrors.New(drifterrors.ErrorTypeConflict, "persist called without a held LockForAdvance transaction")
	}

	_, err := tx.NamedExecContext(ctx, `
		UPDATE drift_candidates SET
			state=:state, state_updated_at=:state_updated_at, drift_type=:drift_type,
			classification_method=:classification_method, confidence=:confidence,
			comparison_result=:comparison_result, evidence_bundle_id=:evidence_bundle_id,
			doc_candidates=:doc_candidates, docs_resolution_status=:docs_resolution_status,
			docs_resolution_confidence=:docs_resolution_confidence, owner_resolution=:owner_resolution,
			routing_decision=:routing_decision, active_plan_id=:active_plan_id,
			active_plan_version=:active_plan_version, active_plan_hash=:active_plan_hash,
			correlated_signals=:correlated_signals, has_coverage_gap=:has_coverage_gap,
			fingerprint_strict=:fingerprint_strict, fingerprint_medium=:fingerprint_medium,
			fingerprint_broad=:fingerprint_broad, retry_count=:retry_count,
			last_error_code=:last_error_code, last_error_message=:last_error_message,
			snoozed_until=:snoozed_until
		WHERE id=:id`, toRow(cand))
	if err != nil {
		_ = tx.Rollback()
		return drifterrors.NewDatabaseError("persist_candidate", err)
	}

	if audit != nil {
		audit.DurationMs = time.Since(cand.StateUpdatedAt).Milliseconds()
		metadataJSON := marshalOrNull(audit.Metadata)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO audit_trail (id, drift_id, from_state, to_state, actor, timestamp, duration_ms, metadata)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			audit.ID, audit.DriftID, string(audit.FromState), string(audit.ToState), audit.Actor, audit.Timestamp, audit.DurationMs, metadataJSON)
		if err != nil {
			_ = tx.Rollback()
			return drifterrors.NewDatabaseError("insert_audit", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return drifterrors.NewDatabaseError("commit_persist", err)
	}
	return nil
}

func toRow(cand *domain.DriftCandidate) map[string]interface{} {
	return map[string]interface{}{
		"id":                         cand.ID,
		"state":                      string(cand.State),
		"state_updated_at":           cand.StateUpdatedAt,
		"drift_type":                 string(cand.DriftType),
		"classification_method":      string(cand.ClassificationMethod),
		"confidence":                 cand.Confidence,
		"comparison_result":          marshalOrNull(cand.ComparisonResult),
		"evidence_bundle_id":         cand.EvidenceBundleID,
		"doc_candidates":             marshalOrNull(cand.DocCandidates),
		"docs_resolution_status":     cand.DocsResolutionStatus,
		"docs_resolution_confidence": cand.DocsResolutionConfidence,
		"owner_resolution":           cand.OwnerResolution,
		"routing_decision":           marshalOrNull(cand.RoutingDecision),
		"active_plan_id":             cand.ActivePlanID,
		"active_plan_version":        cand.ActivePlanVersion,
		"active_plan_hash":           cand.ActivePlanHash,
		"correlated_signals":         marshalOrNull(cand.CorrelatedSignals),
		"has_coverage_gap":           cand.HasCoverageGap,
		"fingerprint_strict":         cand.FingerprintStrict,
		"fingerprint_medium":         cand.FingerprintMedium,
		"fingerprint_broad":          cand.FingerprintBroad,
		"retry_count":                cand.RetryCount,
		"last_error_code":            cand.LastErrorCode,
		"last_error_message":         cand.LastErrorMessage,
		"snoozed_until":              cand.SnoozedUntil,
	}
}

func (r *Repository) HasIdempotencyKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM idempotency_keys WHERE key=$1)`, key)
	if err != nil {
		return false, drifterrors.NewDatabaseError("check_idempotency_key", err)
	}
	return exists, nil
}

func (r *Repository) RecordIdempotencyKey(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO idempotency_keys (key) VALUES ($1) ON CONFLICT DO NOTHING`, key)
	if err != nil {
		return drifterrors.NewDatabaseError("record_idempotency_key", err)
	}
	return nil
}
