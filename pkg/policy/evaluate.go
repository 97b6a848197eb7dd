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

package policy

import (
	"path/filepath"
	"strings"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
)

// Finding is one rule's evaluation result.
type Finding struct {
	PackID         string
	RuleID         string
	ComparatorID   string
	Passed         bool
	Decision       Decision
	Severity       string
	Message        string
}

// Evaluator runs PolicyPack rules against an EvalContext using the
// comparator registry and the fact-condition evaluator.
type Evaluator struct {
	registry *Registry
}

func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Evaluate runs every enabled, triggered rule in pack against ctx,
// honoring evaluation.skipIf as a pack-wide early exit.
func (e *Evaluator) Evaluate(pack *Pack, ctx EvalContext) ([]Finding, error) {
	if pack.Evaluation.SkipIf != nil && skipIfMatches(*pack.Evaluation.SkipIf, ctx) {
		return nil, nil
	}

	var findings []Finding
	for _, rule := range pack.Rules {
		if !rule.Enabled {
			continue
		}
		if !triggerMatches(rule.Trigger, ctx.ChangedFiles) {
			continue
		}
		for _, ob := range rule.Obligations {
			f, err := e.evaluateObligation(pack.Metadata.ID, rule.ID, ob, ctx)
			if err != nil {
				return findings, err
			}
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func (e *Evaluator) evaluateObligation(packID, ruleID string, ob Obligation, ctx EvalContext) (Finding, error) {
	obligation := AutoEnhance(ob)

	var passed bool
	var message string

	if obligation.ComparatorID != "" {
		comp, err := e.registry.Lookup(obligation.ComparatorID)
		if err != nil {
			return Finding{}, err
		}
		if !comp.CanCompare(ctx) {
			return Finding{PackID: packID, RuleID: ruleID, ComparatorID: obligation.ComparatorID, Passed: true, Decision: DecisionPass}, nil
		}
		outcome, err := comp.Perform(ctx, obligation.Params)
		if err != nil {
			return Finding{}, err
		}
		passed, message = outcome.Passed, outcome.Message
	} else if obligation.Condition != nil {
		ok, err := EvaluateCondition(ctx.Facts(), obligation.Condition)
		if err != nil {
			return Finding{}, err
		}
		passed = ok
	} else {
		return Finding{}, drifterrors.NewWithCode(drifterrors.ErrorTypePolicy, "POLICY_PACK_VALIDATION", "obligation has neither comparatorId nor condition")
	}

	decision := DecisionPass
	if !passed {
		decision = obligation.DecisionOnFail
	}

	return Finding{
		PackID:       packID,
		RuleID:       ruleID,
		ComparatorID: obligation.ComparatorID,
		Passed:       passed,
		Decision:     decision,
		Severity:     obligation.Severity,
		Message:      message,
	}, nil
}

func triggerMatches(t Trigger, changedFiles []string) bool {
	if t.Always {
		return true
	}
	if len(t.AnyChangedPaths) > 0 {
		for _, pattern := range t.AnyChangedPaths {
			for _, f := range changedFiles {
				if ok, _ := filepath.Match(pattern, f); ok {
					return true
				}
			}
		}
	}
	if len(t.AllChangedPaths) > 0 {
		for _, pattern := range t.AllChangedPaths {
			matched := false
			for _, f := range changedFiles {
				if ok, _ := filepath.Match(pattern, f); ok {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		return true
	}
	return false
}

func skipIfMatches(s SkipIf, ctx EvalContext) bool {
	for _, label := range s.Labels {
		if containsString(ctx.Labels, label) {
			return true
		}
	}
	if len(s.AllChangedPaths) > 0 && allPathsMatch(s.AllChangedPaths, ctx.ChangedFiles) {
		return true
	}
	for _, needle := range s.PRBodyContains {
		if containsSubstring(ctx.PRBody, needle) {
			return true
		}
	}
	return false
}

func allPathsMatch(patterns, changedFiles []string) bool {
	for _, pattern := range patterns {
		matched := false
		for _, f := range changedFiles {
			if ok, _ := filepath.Match(pattern, f); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func containsSubstring(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}
