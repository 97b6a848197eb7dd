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

// EvalContext is the changed-file/PR context obligations are evaluated
// against. It doubles as the fact catalog's backing
// document: Facts() renders it into the loose FactContext a Condition
// resolves fact paths against.
type EvalContext struct {
	Workspace       string
	Repo            string
	Actor           string
	ActorIsAgent    bool
	ChangedFiles    []string
	Diff            string
	ApprovalsCount  int
	HumanApproval   bool
	CheckRunsPassed bool
	Labels          []string
	PRBody          string
	PRTemplateFields []string
	OpenAPIOldVersion string
	OpenAPINewVersion string
	OpenAPIValid      bool
	ArtifactsPresent  map[string]bool
	ArtifactsUpdated  map[string]bool
	ExtraSecretPatterns []string
}

// Facts renders the EvalContext into the loose map a Condition's fact
// path resolves against.
func (c EvalContext) Facts() FactContext {
	return FactContext{
		"pr": map[string]interface{}{
			"approvals":     map[string]interface{}{"count": c.ApprovalsCount, "humanPresent": c.HumanApproval},
			"checkRuns":     map[string]interface{}{"passed": c.CheckRunsPassed},
			"labels":        toInterfaceSlice(c.Labels),
			"body":          c.PRBody,
			"templateFields": toInterfaceSlice(c.PRTemplateFields),
		},
		"diff": map[string]interface{}{
			"filesChanged": map[string]interface{}{"paths": toInterfaceSlice(c.ChangedFiles)},
			"content":      c.Diff,
		},
		"scope": map[string]interface{}{
			"workspace": c.Workspace,
			"repo":      c.Repo,
		},
		"actor": map[string]interface{}{
			"user":    c.Actor,
			"isAgent": c.ActorIsAgent,
		},
	}
}

func toInterfaceSlice(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// Outcome is a single comparator's boolean verdict plus an optional
// explanatory message.
type Outcome struct {
	Passed  bool
	Message string
}

// Comparator is a registry plugin evaluating one invariant between two
// artifact snapshots.
type Comparator interface {
	ComparatorType() string
	SupportedArtifactTypes() []string
	CanCompare(ctx EvalContext) bool
	Perform(ctx EvalContext, params map[string]interface{}) (Outcome, error)
}

// Registry is the startup-built, immutable-thereafter comparator lookup.
type Registry struct {
	comparators map[string]Comparator
}

// NewRegistry builds the registry with the required comparator set
// pre-registered.
func NewRegistry() *Registry {
	r := &Registry{comparators: make(map[string]Comparator)}
	for _, c := range builtinComparators() {
		r.comparators[c.ComparatorType()] = c
	}
	return r
}

func (r *Registry) Register(c Comparator) { r.comparators[c.ComparatorType()] = c }

func (r *Registry) Lookup(id string) (Comparator, error) {
	c, ok := r.comparators[id]
	if !ok {
		return nil, drifterrors.NewWithCode(drifterrors.ErrorTypePolicy, "UNKNOWN_COMPARATOR", "no comparator registered for id "+id)
	}
	return c, nil
}

func builtinComparators() []Comparator {
	return []Comparator{
		fnComparator{id: "obligation.file_present", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			path, _ := p["path"].(string)
			for _, f := range ctx.ChangedFiles {
				if f == path {
					return Outcome{Passed: true}, nil
				}
			}
			return Outcome{Passed: false, Message: "required file not present in changeset: " + path}, nil
		}},
		fnComparator{id: "openapi.version_bump", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			minBump, _ := p["minBump"].(string)
			ok := openAPIVersionBumped(ctx.OpenAPIOldVersion, ctx.OpenAPINewVersion, minBump)
			msg := ""
			if !ok {
				msg = "openapi.yaml changed without a " + orDefault(minBump, "minor") + "-or-greater version bump"
			}
			return Outcome{Passed: ok, Message: msg}, nil
		}},
		fnComparator{id: "openapi.schema_valid", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			if !ctx.OpenAPIValid {
				return Outcome{Passed: false, Message: "openapi.yaml failed schema validation"}, nil
			}
			return Outcome{Passed: true}, nil
		}},
		fnComparator{id: "artifact.present", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			kind, _ := p["type"].(string)
			if ctx.ArtifactsPresent[kind] {
				return Outcome{Passed: true}, nil
			}
			return Outcome{Passed: false, Message: "required artifact type not present: " + kind}, nil
		}},
		fnComparator{id: "artifact.updated", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			kind, _ := p["type"].(string)
			if ctx.ArtifactsUpdated[kind] {
				return Outcome{Passed: true}, nil
			}
			return Outcome{Passed: false, Message: "required artifact type not updated: " + kind}, nil
		}},
		fnComparator{id: "checkruns.passed", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			return Outcome{Passed: ctx.CheckRunsPassed, Message: notPassedMsg(ctx.CheckRunsPassed, "required check runs have not all passed")}, nil
		}},
		fnComparator{id: "min_approvals", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			min := 1
			if v, ok := toFloat(p["min"]); ok {
				min = int(v)
			}
			ok := ctx.ApprovalsCount >= min
			return Outcome{Passed: ok, Message: notPassedMsg(ok, "insufficient approvals")}, nil
		}},
		fnComparator{id: "human_approval_present", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			return Outcome{Passed: ctx.HumanApproval, Message: notPassedMsg(ctx.HumanApproval, "no human approval recorded")}, nil
		}},
		fnComparator{id: "no_secrets_in_diff", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			found, pattern := ContainsSecret(ctx.Diff, ctx.ExtraSecretPatterns)
			if found {
				return Outcome{Passed: false, Message: "diff matches secret pattern: " + pattern}, nil
			}
			return Outcome{Passed: true}, nil
		}},
		fnComparator{id: "pr_template_field_present", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			field, _ := p["field"].(string)
			for _, f := range ctx.PRTemplateFields {
				if f == field {
					return Outcome{Passed: true}, nil
				}
			}
			return Outcome{Passed: false, Message: "PR template missing required field: " + field}, nil
		}},
		fnComparator{id: "changed_path_matches", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			pattern, _ := p["pattern"].(string)
			for _, f := range ctx.ChangedFiles {
				if ok, _ := filepath.Match(pattern, f); ok {
					return Outcome{Passed: true}, nil
				}
			}
			return Outcome{Passed: false, Message: "no changed path matches " + pattern}, nil
		}},
		fnComparator{id: "actor_is_agent", fn: func(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
			return Outcome{Passed: ctx.ActorIsAgent, Message: notPassedMsg(ctx.ActorIsAgent, "actor is not a recognized automation agent")}, nil
		}},
	}
}

func notPassedMsg(passed bool, msg string) string {
	if passed {
		return ""
	}
	return msg
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// openAPIVersionBumped reports whether newVer is at least minBump (patch
// | minor | major) ahead of oldVer, both "MAJOR.MINOR.PATCH" strings.
func openAPIVersionBumped(oldVer, newVer, minBump string) bool {
	o := parseSemver(oldVer)
	n := parseSemver(newVer)
	switch minBump {
	case "major":
		return n[0] > o[0]
	default: // "minor" is the spec's documented default trigger
		return n[0] > o[0] || (n[0] == o[0] && n[1] > o[1])
	}
}

func parseSemver(v string) [3]int {
	var out [3]int
	parts := strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n := 0
		for _, r := range parts[i] {
			if r < '0' || r > '9' {
				break
			}
			n = n*10 + int(r-'0')
		}
		out[i] = n
	}
	return out
}

// fnComparator adapts a plain function into the Comparator interface for
// the built-in set, all of which support every artifact type and are
// always applicable — CanCompare is trivially true for the required set
// since none of them depend on an optional artifact kind being present.
type fnComparator struct {
	id string
	fn func(ctx EvalContext, params map[string]interface{}) (Outcome, error)
}

func (f fnComparator) ComparatorType() string            { return f.id }
func (f fnComparator) SupportedArtifactTypes() []string  { return []string{"*"} }
func (f fnComparator) CanCompare(ctx EvalContext) bool   { return true }
func (f fnComparator) Perform(ctx EvalContext, p map[string]interface{}) (Outcome, error) {
	return f.fn(ctx, p)
}
