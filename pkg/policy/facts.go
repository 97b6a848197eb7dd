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
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
)

// FactCatalogVersion is the process-wide fact catalog version,
// initialized once at startup and never mutated afterward.
const FactCatalogVersion = "v1"

// Operator is a fact-condition comparison operator.
type Operator string

const (
	OpEq           Operator = "=="
	OpNeq          Operator = "!="
	OpGt           Operator = ">"
	OpGte          Operator = ">="
	OpLt           Operator = "<"
	OpLte          Operator = "<="
	OpIn           Operator = "in"
	OpContains     Operator = "contains"
	OpContainsAll  Operator = "containsAll"
	OpMatches      Operator = "matches"
	OpStartsWith   Operator = "startsWith"
	OpEndsWith     Operator = "endsWith"
)

// Logic composes conditions.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
	LogicNot Logic = "NOT"
)

// Condition is one node of the fact-condition DSL tree: a
// leaf compares a fact against a value; a composite node combines
// children with AND/OR/NOT.
type Condition struct {
	Fact     string      `yaml:"fact,omitempty" json:"fact,omitempty"`
	Operator Operator    `yaml:"operator,omitempty" json:"operator,omitempty"`
	Value    interface{} `yaml:"value,omitempty" json:"value,omitempty"`

	Logic    Logic        `yaml:"logic,omitempty" json:"logic,omitempty"`
	Children []*Condition `yaml:"children,omitempty" json:"children,omitempty"`
}

// FactContext is the evaluation context a Condition's fact path resolves
// against. It is a loose map deliberately — unlike domain.BaselineArtifacts,
// the fact catalog is meant to be extensible without a core code change,
// the same way a Rego input document stays schema-free while the rules
// evaluating it stay typed.
type FactContext map[string]interface{}

// resolveFact evaluates a dotted fact path (e.g. "pr.approvals.count")
// against ctx using a jq query, translating dots to jq's ".a.b.c" syntax.
func resolveFact(ctx FactContext, fact string) (interface{}, error) {
	query := "." + strings.TrimPrefix(fact, ".")
	q, err := gojq.Parse(query)
	if err != nil {
		return nil, drifterrors.Wrapf(err, drifterrors.ErrorTypeInternal, "invalid fact path %q", fact)
	}

	iter := q.Run(map[string]interface{}(ctx))
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, ok := v.(error); ok {
		return nil, drifterrors.Wrapf(err, drifterrors.ErrorTypeInternal, "fact resolution failed for %q", fact)
	}
	return v, nil
}

// EvaluateCondition recursively evaluates a Condition tree against ctx.
func EvaluateCondition(ctx FactContext, c *Condition) (bool, error) {
	if c == nil {
		return true, nil
	}
	if c.Logic != "" {
		return evaluateLogic(ctx, c)
	}
	val, err := resolveFact(ctx, c.Fact)
	if err != nil {
		return false, err
	}
	return compareOperator(c.Operator, val, c.Value)
}

func evaluateLogic(ctx FactContext, c *Condition) (bool, error) {
	switch c.Logic {
	case LogicAnd:
		for _, child := range c.Children {
			ok, err := EvaluateCondition(ctx, child)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case LogicOr:
		for _, child := range c.Children {
			ok, err := EvaluateCondition(ctx, child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case LogicNot:
		if len(c.Children) != 1 {
			return false, drifterrors.NewValidationError("NOT condition requires exactly one child")
		}
		ok, err := EvaluateCondition(ctx, c.Children[0])
		return !ok, err
	default:
		return false, drifterrors.NewValidationError(fmt.Sprintf("unknown condition logic %q", c.Logic))
	}
}

func compareOperator(op Operator, actual, expected interface{}) (bool, error) {
	switch op {
	case OpEq:
		return equalValues(actual, expected), nil
	case OpNeq:
		return !equalValues(actual, expected), nil
	case OpGt, OpGte, OpLt, OpLte:
		af, aok := toFloat(actual)
		ef, eok := toFloat(expected)
		if !aok || !eok {
			return false, drifterrors.NewValidationError("non-numeric comparison with operator " + string(op))
		}
		switch op {
		case OpGt:
			return af > ef, nil
		case OpGte:
			return af >= ef, nil
		case OpLt:
			return af < ef, nil
		default:
			return af <= ef, nil
		}
	case OpIn:
		return containsValue(expected, actual), nil
	case OpContains:
		return containsValue(actual, expected), nil
	case OpContainsAll:
		expectedSlice, ok := toSlice(expected)
		if !ok {
			return false, drifterrors.NewValidationError("containsAll requires a list value")
		}
		for _, e := range expectedSlice {
			if !containsValue(actual, e) {
				return false, nil
			}
		}
		return true, nil
	case OpStartsWith:
		as, aok := actual.(string)
		es, eok := expected.(string)
		return aok && eok && strings.HasPrefix(as, es), nil
	case OpEndsWith:
		as, aok := actual.(string)
		es, eok := expected.(string)
		return aok && eok && strings.HasSuffix(as, es), nil
	case OpMatches:
		as, aok := actual.(string)
		es, eok := expected.(string)
		if !aok || !eok {
			return false, nil
		}
		return matchesPattern(as, es), nil
	default:
		return false, drifterrors.NewValidationError("unknown operator " + string(op))
	}
}

func equalValues(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toSlice(v interface{}) ([]interface{}, bool) {
	s, ok := v.([]interface{})
	return s, ok
}

func containsValue(container, item interface{}) bool {
	switch c := container.(type) {
	case []interface{}:
		for _, v := range c {
			if equalValues(v, item) {
				return true
			}
		}
		return false
	case string:
		is, ok := item.(string)
		return ok && strings.Contains(c, is)
	default:
		return false
	}
}

func matchesPattern(s, pattern string) bool {
	re, err := compileUserPattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
