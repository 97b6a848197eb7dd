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
	"time"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// criticalDomains always escalate to P0 regardless of confidence band.
var criticalDomains = map[string]bool{
	"deployment": true,
	"rollback":   true,
	"auth":       true,
}

// RateCapWindow and RateCapMax implement the 60-minute / 10-notification
// cap.
const (
	RateCapWindow = time.Hour
	RateCapMax    = 10
)

// RateLimiter caps outbound notifications per workspace per RateCapWindow.
// A false return means the cap has been hit and the candidate falls back
// to digest-only delivery.
type RateLimiter interface {
	Allow(ctx context.Context, workspaceID string, window time.Duration, max int) (bool, error)
}

// Input bundles what Decide needs to pick a RoutingDecision.
type Input struct {
	Confidence    float64
	OwnerSlackID  string
	TargetDomain  string // e.g. "deployment", "rollback", "auth"
	RiskLevel     string // "high" always escalates
	HighThreshold float64
	MediumThreshold float64
}

// Decide implements the routing policy of: confidence bands map to P0/P1/P2,
// and certain critical domains or a high risk level always escalate to P0
// regardless of band.
func Decide(in Input) domain.RoutingDecision {
	escalate := criticalDomains[in.TargetDomain] || in.RiskLevel == "high"

	switch {
	case escalate || in.Confidence >= in.HighThreshold:
		d := domain.RoutingDecision{Priority: "P0", IsDM: in.OwnerSlackID != "", Escalated: escalate}
		if d.IsDM {
			d.Channel = in.OwnerSlackID
		} else {
			d.Channel = "team"
		}
		if escalate {
			d.Reason = "critical_domain_or_risk"
		} else {
			d.Reason = "high_confidence"
		}
		return d
	case in.Confidence >= in.MediumThreshold:
		return domain.RoutingDecision{Priority: "P1", Channel: "team", Reason: "medium_confidence"}
	default:
		return domain.RoutingDecision{Priority: "P2", Channel: "digest", Reason: "low_confidence"}
	}
}

// ApplyRateCap downgrades a P0/P1 decision to digest-only once the
// workspace has hit its hourly notification cap, except for escalated
// (critical-domain / high-risk) decisions, which always bypass the cap.
func ApplyRateCap(ctx context.Context, limiter RateLimiter, workspaceID string, decision domain.RoutingDecision) (domain.RoutingDecision, error) {
	if decision.Escalated || decision.Priority == "P2" {
		return decision, nil
	}
	allowed, err := limiter.Allow(ctx, workspaceID, RateCapWindow, RateCapMax)
	if err != nil {
		return decision, err
	}
	if allowed {
		return decision, nil
	}
	decision.Priority = "P2"
	decision.Channel = "digest"
	decision.IsDM = false
	decision.Reason = "rate_capped"
	return decision, nil
}
