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

package routing

import (
	"context"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// escalateAfter is the false-positive count at which a suppression rule
// escalates from one fingerprint level to the next coarser one: 3 at strict
// -> medium, 5 at medium -> broad.
var escalateAfter = map[domain.SuppressionLevel]int{
	domain.SuppressionStrict: 3,
	domain.SuppressionMedium: 5,
}

var nextLevel = map[domain.SuppressionLevel]domain.SuppressionLevel{
	domain.SuppressionStrict: domain.SuppressionMedium,
	domain.SuppressionMedium: domain.SuppressionBroad,
}

// SuppressionStore is the learned-suppression persistence surface.
type SuppressionStore interface {
	ActiveRule(ctx context.Context, workspaceID, fingerprint string, level domain.SuppressionLevel) (*domain.SuppressionRule, error)
	RejectionCount(ctx context.Context, workspaceID, fingerprint string, level domain.SuppressionLevel) (int, error)
	RecordRejection(ctx context.Context, workspaceID, fingerprint string, level domain.SuppressionLevel) (int, error)
	CreateRule(ctx context.Context, rule *domain.SuppressionRule) error
}

// CheckSuppressed reports whether any of a candidate's three fingerprint
// levels matches an active, unexpired SuppressionRule, finest level
// first.
func CheckSuppressed(ctx context.Context, store SuppressionStore, workspaceID string, fp domain.Fingerprints) (*domain.SuppressionRule, error) {
	for level, hash := range map[domain.SuppressionLevel]string{
		domain.SuppressionStrict: fp.Strict,
		domain.SuppressionMedium: fp.Medium,
		domain.SuppressionBroad:  fp.Broad,
	} {
		rule, err := store.ActiveRule(ctx, workspaceID, hash, level)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			return rule, nil
		}
	}
	return nil, nil
}

// RecordRejection bumps the false-positive counter for the candidate's
// strict fingerprint and escalates the suppression to the next coarser
// level once the escalation threshold is crossed. It is called whenever
// a human rejects a PatchProposal.
func RecordRejection(ctx context.Context, store SuppressionStore, workspaceID string, fp domain.Fingerprints, reason, actor string) error {
	for _, level := range []domain.SuppressionLevel{domain.SuppressionStrict, domain.SuppressionMedium} {
		hash := fingerprintForLevel(fp, level)
		count, err := store.RecordRejection(ctx, workspaceID, hash, level)
		if err != nil {
			return err
		}
		if count < escalateAfter[level] {
			break
		}
		escalated := nextLevel[level]
		if err := store.CreateRule(ctx, &domain.SuppressionRule{
			WorkspaceID: workspaceID,
			Fingerprint: fingerprintForLevel(fp, escalated),
			Level:       escalated,
			Reason:      "escalated from " + string(level) + " after " + reason,
			CreatedBy:   actor,
		}); err != nil {
			return err
		}
	}
	return nil
}

func fingerprintForLevel(fp domain.Fingerprints, level domain.SuppressionLevel) string {
	switch level {
	case domain.SuppressionStrict:
		return fp.Strict
	case domain.SuppressionMedium:
		return fp.Medium
	default:
		return fp.Broad
	}
}
