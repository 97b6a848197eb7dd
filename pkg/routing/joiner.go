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
	"time"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// DefaultJoinWindow is the signal correlation lookback window.
const DefaultJoinWindow = 7 * 24 * time.Hour

// JoinResult is the Signal Joiner's output.
type JoinResult struct {
	ConfidenceBoost   float64
	CorrelatedSignals []string
	IsMultiSource     bool
}

// Relevance scores how related an other signal is to the anchor one,
// decaying linearly to zero at the edge of the window.
func Relevance(anchor, other time.Time, window time.Duration) float64 {
	hoursApart := anchor.Sub(other).Hours()
	if hoursApart < 0 {
		hoursApart = -hoursApart
	}
	windowHours := window.Hours()
	if windowHours <= 0 {
		return 0
	}
	rel := 1 - hoursApart/windowHours
	if rel < 0 {
		return 0
	}
	return rel
}

// Join correlates anchor against other signals for the same service
// within window, computing the confidence boost per: +0.15 when a github_pr
// and pagerduty_incident co-occur, +0.10 when >= 3 related signals, +0.05
// when >= 1. It does not wait for signals that have not yet been persisted.
func Join(anchor domain.SignalEvent, others []domain.SignalEvent, window time.Duration) JoinResult {
	var related []domain.SignalEvent
	sourceTypes := map[domain.SourceType]bool{anchor.SourceType: true}

	for _, o := range others {
		if o.ID == anchor.ID || o.Service != anchor.Service || o.Service == "" {
			continue
		}
		if Relevance(anchor.OccurredAt, o.OccurredAt, window) <= 0 {
			continue
		}
		related = append(related, o)
		sourceTypes[o.SourceType] = true
	}

	result := JoinResult{IsMultiSource: len(sourceTypes) > 1}
	if len(related) == 0 {
		return result
	}

	ids := make([]string, 0, len(related))
	hasPR, hasIncident := anchor.SourceType == domain.SourceGitHubPR, anchor.SourceType == domain.SourcePagerDutyIncident
	for _, r := range related {
		ids = append(ids, r.ID)
		if r.SourceType == domain.SourceGitHubPR {
			hasPR = true
		}
		if r.SourceType == domain.SourcePagerDutyIncident {
			hasIncident = true
		}
	}
	result.CorrelatedSignals = ids

	boost := 0.0
	if hasPR && hasIncident {
		boost += 0.15
	}
	switch {
	case len(related) >= 3:
		boost += 0.10
	case len(related) >= 1:
		boost += 0.05
	}
	result.ConfidenceBoost = boost
	return result
}
