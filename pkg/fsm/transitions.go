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

// Package fsm implements the durable DriftCandidate state machine
//. Each non-terminal state has
// exactly one stage handler; the Engine advances a candidate by exactly
// one transition per Advance call, persisting the new state and an
// AuditTrail row atomically before any side effect fires.
package fsm

import "github.com/driftsentry/driftcore/pkg/domain"

// happyPath is the single forward chain every candidate that is neither
// filtered, suppressed, nor failed walks through.
var happyPath = map[domain.State]domain.State{
	domain.StateIngested:           domain.StateNormalized,
	domain.StateNormalized:         domain.StateEligibilityChecked,
	domain.StateEligibilityChecked: domain.StateEvidenceBuilt,
	domain.StateEvidenceBuilt:      domain.StateDocsResolved,
	domain.StateDocsResolved:       domain.StateCompared,
	domain.StateCompared:           domain.StateClassified,
	domain.StateClassified:         domain.StatePolicyEvaluated,
	domain.StatePolicyEvaluated:    domain.StateRouted,
	domain.StateRouted:             domain.StatePatchPlanned,
	domain.StatePatchPlanned:       domain.StatePatchProposed,
	domain.StatePatchProposed:      domain.StateAwaitingHuman,
}

// humanResolutions are the outcomes a human action may drive from
// AWAITING_HUMAN.
var humanResolutions = map[domain.State]bool{
	domain.StateApplied:  true,
	domain.StateRejected: true,
	domain.StateSnoozed:  true,
}

// failureStates may be entered from any non-terminal state.
var failureStates = map[domain.State]bool{
	domain.StateFailed:             true,
	domain.StateFailedNeedsMapping: true,
	domain.StateFailedPatchGen:     true,
	domain.StateIgnored:            true,
}

// CanTransition validates a single proposed transition against the FSM
// defined
func CanTransition(from, to domain.State) bool {
	if domain.IsTerminal(from) {
		return false
	}

	if next, ok := happyPath[from]; ok && next == to {
		return true
	}

	if from == domain.StateAwaitingHuman && humanResolutions[to] {
		return true
	}

	// SNOOZED re-enters AWAITING_HUMAN when the snooze expires — the one
	// explicit non-monotone transition this state machine allows.
	if from == domain.StateSnoozed && to == domain.StateAwaitingHuman {
		return true
	}

	// Any non-terminal state may fail, be filtered as non-applicable, or
	// (ELIGIBILITY_CHECKED only) be IGNORED outright.
	if failureStates[to] {
		return true
	}

	return false
}

// Validate reports whether s is one of the known FSM states.
func Validate(s domain.State) bool {
	switch s {
	case domain.StateIngested, domain.StateNormalized, domain.StateEligibilityChecked,
		domain.StateEvidenceBuilt, domain.StateDocsResolved, domain.StateCompared,
		domain.StateClassified, domain.StatePolicyEvaluated, domain.StateRouted,
		domain.StatePatchPlanned, domain.StatePatchProposed, domain.StateAwaitingHuman,
		domain.StateApplied, domain.StateRejected, domain.StateSnoozed, domain.StateIgnored,
		domain.StateFailed, domain.StateFailedNeedsMapping, domain.StateFailedPatchGen:
		return true
	default:
		return false
	}
}

// IsValidPath reports whether a sequence of observed states is a valid
// walk of the FSM: every consecutive pair is a legal transition, and only
// the last state may be non-terminal.
func IsValidPath(path []domain.State) bool {
	if len(path) == 0 {
		return false
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			return false
		}
		if domain.IsTerminal(path[i]) {
			return false
		}
	}
	return true
}
