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

// RuleConflict records provenance for a ruleId that two or more packs
// disagree about.
type RuleConflict struct {
	RuleID string
	Kind   string // priority_conflict | merge_strategy_conflict | obligation_conflict
	PackIDs []string
	Resolution string
}

// MergeResult is the outcome of composing several packs' findings into
// one decision per rule.
type MergeResult struct {
	Findings  []Finding
	Conflicts []RuleConflict
}

// packFindings groups one pack's findings with its metadata, needed by
// the merge strategies to break ties on scopePriority.
type packFindings struct {
	pack     *Pack
	findings []Finding
}

// Merge composes the findings of several applicable packs into one
// decision per ruleId using each pack's declared scopeMergeStrategy.
// All packs must agree on EXPLICIT or none may use it; a disagreement
// falls back to MOST_RESTRICTIVE rather than aborting evaluation.
func Merge(packs []*Pack, allFindings [][]Finding) MergeResult {
	groups := make([]packFindings, len(packs))
	for i, p := range packs {
		groups[i] = packFindings{pack: p, findings: allFindings[i]}
	}

	strategy, conflict := resolveStrategy(packs)
	var result MergeResult
	if conflict != nil {
		result.Conflicts = append(result.Conflicts, *conflict)
	}

	byRule := make(map[string][]packFindings)
	order := make([]string, 0)
	for _, g := range groups {
		for _, f := range g.findings {
			if _, seen := byRule[f.RuleID]; !seen {
				order = append(order, f.RuleID)
			}
			byRule[f.RuleID] = append(byRule[f.RuleID], packFindings{pack: g.pack, findings: []Finding{f}})
		}
	}

	for _, ruleID := range order {
		entries := byRule[ruleID]
		if len(entries) == 1 {
			result.Findings = append(result.Findings, entries[0].findings[0])
			continue
		}

		winner, c := resolveRuleConflict(ruleID, entries, strategy)
		result.Findings = append(result.Findings, winner)
		if c != nil {
			result.Conflicts = append(result.Conflicts, *c)
		}
	}
	return result
}

// resolveStrategy determines the effective merge strategy across all
// applicable packs, flagging a merge_strategy_conflict when packs
// disagree and EXPLICIT is not used uniformly.
func resolveStrategy(packs []*Pack) (MergeStrategy, *RuleConflict) {
	if len(packs) == 0 {
		return MergeMostRestrictive, nil
	}
	first := packs[0].Metadata.ScopeMergeStrategy
	mixed := false
	ids := []string{packs[0].Metadata.ID}
	for _, p := range packs[1:] {
		ids = append(ids, p.Metadata.ID)
		if p.Metadata.ScopeMergeStrategy != first {
			mixed = true
		}
	}
	if !mixed {
		return first, nil
	}

	explicitUsed := false
	for _, p := range packs {
		if p.Metadata.ScopeMergeStrategy == MergeExplicit {
			explicitUsed = true
		}
	}
	if explicitUsed {
		return MergeMostRestrictive, &RuleConflict{
			Kind:       "merge_strategy_conflict",
			PackIDs:    ids,
			Resolution: "EXPLICIT conflicts with another declared strategy; falling back to MOST_RESTRICTIVE",
		}
	}
	return MergeMostRestrictive, &RuleConflict{
		Kind:       "merge_strategy_conflict",
		PackIDs:    ids,
		Resolution: "applicable packs declare different merge strategies; falling back to MOST_RESTRICTIVE",
	}
}

func resolveRuleConflict(ruleID string, entries []packFindings, strategy MergeStrategy) (Finding, *RuleConflict) {
	packIDs := make([]string, len(entries))
	for i, e := range entries {
		packIDs[i] = e.pack.Metadata.ID
	}

	switch strategy {
	case MergeMostRestrictive:
		return mostRestrictive(entries), nil
	case MergeHighestPriority:
		return highestPriority(ruleID, entries, packIDs)
	case MergeExplicit:
		// EXPLICIT requires every pack to resolve its own scope with no
		// overlap; reaching here means two packs both matched the same
		// ruleId under EXPLICIT, itself a conflict.
		winner := mostRestrictive(entries)
		return winner, &RuleConflict{
			RuleID: ruleID, Kind: "obligation_conflict", PackIDs: packIDs,
			Resolution: "EXPLICIT scopes overlapped for this rule; resolved most-restrictive",
		}
	default:
		return mostRestrictive(entries), nil
	}
}

func mostRestrictive(entries []packFindings) Finding {
	best := entries[0].findings[0]
	for _, e := range entries[1:] {
		f := e.findings[0]
		if decisionRank(f.Decision) > decisionRank(best.Decision) {
			best = f
		}
	}
	return best
}

func decisionRank(d Decision) int {
	switch d {
	case DecisionBlock:
		return 2
	case DecisionWarn:
		return 1
	default:
		return 0
	}
}

func highestPriority(ruleID string, entries []packFindings, packIDs []string) (Finding, *RuleConflict) {
	best := entries[0]
	tie := false
	for _, e := range entries[1:] {
		if e.pack.Metadata.ScopePriority > best.pack.Metadata.ScopePriority {
			best = e
			tie = false
		} else if e.pack.Metadata.ScopePriority == best.pack.Metadata.ScopePriority {
			tie = true
		}
	}
	if tie {
		return mostRestrictive(entries), &RuleConflict{
			RuleID: ruleID, Kind: "priority_conflict", PackIDs: packIDs,
			Resolution: "equal scopePriority; resolved most-restrictive",
		}
	}
	return best.findings[0], nil
}
