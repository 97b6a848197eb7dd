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
	"errors"
	"fmt"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// ErrStaleLock is returned by Repository.LockForAdvance when the observed
// (state, stateUpdatedAt) pair no longer matches the current row — another
// worker has already advanced this candidate.
var ErrStaleLock = errors.New("fsm: stale lock, candidate advanced concurrently")

// ErrNoHandler indicates a non-terminal state has no registered
// StageHandler — a wiring bug, never a runtime condition a candidate
// should reach.
type ErrNoHandler domain.State

func (e ErrNoHandler) Error() string {
	return fmt.Sprintf("fsm: no stage handler registered for state %q", domain.State(e))
}

// ErrIllegalTransition indicates a stage handler (or caller) proposed a
// transition the FSM does not allow.
type ErrIllegalTransition struct {
	From, To domain.State
}

func (e ErrIllegalTransition) Error() string {
	return fmt.Sprintf("fsm: illegal transition %s -> %s", e.From, e.To)
}
