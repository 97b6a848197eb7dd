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

package fsm

import (
	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
)

// maxRetries bounds the transient-failure backoff loop.
const maxRetries = 5

// Disposition is the outcome of classifying a stage failure.
type Disposition struct {
	NextState State
	Code      string
	Retry     bool
}

type State = domain.State

// classifyFailure maps a stage error plus the candidate's current retry
// count to a terminal or retry disposition.
func classifyFailure(cand *domain.DriftCandidate, err error) Disposition {
	if isNonApplicable(err) {
		return Disposition{NextState: domain.StateIgnored}
	}

	if drifterrors.IsRetryable(err) {
		if cand.RetryCount+1 >= maxRetries {
			return Disposition{NextState: domain.StateFailed, Code: "RETRY_EXHAUSTED"}
		}
		return Disposition{NextState: cand.State, Code: drifterrors.GetCode(err), Retry: true}
	}

	code := drifterrors.GetCode(err)
	switch code {
	case "EXTRACTED_SCHEMA_VIOLATION", "LLM_SCHEMA_VALIDATION":
		return Disposition{NextState: domain.StateFailed, Code: code}
	case "PACK_MERGE_CONFLICT", "UNKNOWN_COMPARATOR":
		return Disposition{NextState: domain.StateFailedNeedsMapping, Code: code}
	case "PATCH_VALIDATION_FAILED":
		return Disposition{NextState: domain.StateFailedPatchGen, Code: code}
	default:
		return Disposition{NextState: domain.StateFailed, Code: code}
	}
}

// nonApplicableError is a sentinel wrapper a stage handler returns when it
// determines the candidate should terminate as IGNORED without that being
// a failure at all.
type nonApplicableError struct {
	reason string
}

func (e *nonApplicableError) Error() string { return e.reason }

func NewNonApplicable(reason string) error {
	return &nonApplicableError{reason: reason}
}

func isNonApplicable(err error) bool {
	_, ok := err.(*nonApplicableError)
	return ok
}
