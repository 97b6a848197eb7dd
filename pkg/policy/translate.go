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

// AutoEnhance attaches an equivalent Condition to a legacy
// comparator-based obligation where a deterministic translation exists
// . The comparator still runs; the attached condition is informational
// parity, letting the fact-based evaluator reach the same verdict through
// the fact catalog rather than forcing every pack author to migrate off
// comparatorId. Obligations that already declare a Condition, or whose
// comparatorId has no deterministic translation, are returned unchanged.
func AutoEnhance(ob Obligation) Obligation {
	if ob.Condition != nil || ob.ComparatorID == "" {
		return ob
	}

	switch ob.ComparatorID {
	case "min_approvals":
		min := 1
		if v, ok := toFloat(ob.Params["min"]); ok {
			min = int(v)
		}
		ob.Condition = &Condition{Fact: "pr.approvals.count", Operator: OpGte, Value: float64(min)}
	case "human_approval_present":
		ob.Condition = &Condition{Fact: "pr.approvals.humanPresent", Operator: OpEq, Value: true}
	case "changed_path_matches":
		if pattern, ok := ob.Params["pattern"].(string); ok {
			ob.Condition = &Condition{Fact: "diff.filesChanged.paths", Operator: OpContains, Value: pattern}
		}
	case "pr_template_field_present":
		if field, ok := ob.Params["field"].(string); ok {
			ob.Condition = &Condition{Fact: "pr.templateFields", Operator: OpContains, Value: field}
		}
	case "actor_is_agent":
		ob.Condition = &Condition{Fact: "actor.isAgent", Operator: OpEq, Value: true}
	}
	return ob
}
