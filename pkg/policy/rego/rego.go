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

// Package rego implements an optional Rego-backed policy.Comparator.
// Some PolicyPack obligations express a boolean predicate more naturally
// as a Rego rule than as the fact-condition DSL in pkg/policy/facts.go —
// an approval-count threshold combined with a check-run gate, for
// instance, reads cleaner as one "allow" rule than a nested AND/OR tree.
// Comparators built here are registered under their own comparatorId
// (suffixed ".rego") alongside the deterministic Go implementations in
// pkg/policy/comparators.go; a PolicyPack opts in per-obligation by
// naming the Rego-backed id.
package rego

import (
	"context"

	gofaster "github.com/go-faster/errors"
	"github.com/open-policy-agent/opa/rego"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/policy"
)

// Comparator evaluates one compiled Rego module's "result" rule against a
// policy.EvalContext rendered to Facts(), expecting the rule to produce an
// object with a boolean "allow" field and an optional "message" string.
type Comparator struct {
	id           string
	artifactType string
	query        rego.PreparedEvalQuery
}

// New compiles module (a single Rego source string) and binds it to the
// comparator id used in a PolicyPack obligation's comparatorId. query is
// the fully-qualified rule path, e.g. "data.driftcore.policy.result".
func New(ctx context.Context, id, artifactType, module, query string) (*Comparator, error) {
	prepared, err := rego.New(
		rego.Query(query),
		rego.Module(id+".rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, drifterrors.Wrap(gofaster.Wrap(err, "rego compile"), drifterrors.ErrorTypeInternal,
			"failed to compile rego module for comparator "+id)
	}
	return &Comparator{id: id, artifactType: artifactType, query: prepared}, nil
}

func (c *Comparator) ComparatorType() string           { return c.id }
func (c *Comparator) SupportedArtifactTypes() []string { return []string{c.artifactType} }
func (c *Comparator) CanCompare(policy.EvalContext) bool { return true }

// Perform evaluates the compiled query against ctx's fact document plus
// the obligation's params (merged under "params" so a Rego rule can read
// both input.pr.approvals.count and input.params.min).
func (c *Comparator) Perform(ctx policy.EvalContext, params map[string]interface{}) (policy.Outcome, error) {
	input := map[string]interface{}{}
	for k, v := range ctx.Facts() {
		input[k] = v
	}
	input["params"] = params

	rs, err := c.query.Eval(context.Background(), rego.EvalInput(input))
	if err != nil {
		return policy.Outcome{}, drifterrors.Wrap(gofaster.Wrap(err, "rego eval"), drifterrors.ErrorTypeInternal,
			"rego evaluation failed for comparator "+c.id)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return policy.Outcome{Passed: false, Message: "rego policy produced no result"}, nil
	}

	result, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return policy.Outcome{}, gofaster.Newf("rego comparator %s: result rule did not produce an object", c.id)
	}
	passed, _ := result["allow"].(bool)
	msg, _ := result["message"].(string)
	return policy.Outcome{Passed: passed, Message: msg}, nil
}

// CheckRunsPassedModule is the Rego source for the "checkruns.passed.rego"
// comparator: passes when every required check run has passed.
const CheckRunsPassedModule = `package driftcore.policy

default result := {"allow": false, "message": "required check runs have not all passed"}

result := {"allow": true, "message": ""} if {
	input.pr.checkRuns.passed
}
`

// MinApprovalsModule is the Rego source for the "min_approvals.rego"
// comparator: passes when input.pr.approvals.count is at least
// input.params.min (defaulting to 1 when params.min is absent).
const MinApprovalsModule = `package driftcore.policy

default min_required := 1

min_required := n if {
	n := input.params.min
}

default result := {"allow": false, "message": "insufficient approvals"}

result := {"allow": true, "message": ""} if {
	input.pr.approvals.count >= min_required
}
`

// ResultQuery is the rule path every module above exposes its verdict
// under.
const ResultQuery = "data.driftcore.policy.result"
