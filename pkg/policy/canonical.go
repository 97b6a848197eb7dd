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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
)

// setLikePaths enumerates the dotted paths whose array
// values are sorted during canonicalization because they are
// semantically sets, not sequences. Paths are matched against the
// dotted key path from the document root, with "[]" standing for "any
// index of the enclosing array" so e.g. "rules[].trigger.anyChangedPaths"
// matches every rule.
var setLikePaths = map[string]bool{
	"metadata.tags":                      true,
	"scope.branches.include":             true,
	"scope.branches.exclude":             true,
	"scope.actorSignals":                 true,
	"scope.prEvents":                     true,
	"artifacts.requiredTypes":            true,
	"rules[].trigger.anyChangedPaths":    true,
	"rules[].trigger.allChangedPaths":    true,
	"evaluation.skipIf.labels":           true,
	"evaluation.skipIf.allChangedPaths":  true,
	"evaluation.skipIf.prBodyContains":   true,
}

// ParsePack parses raw PolicyPack YAML into a Pack. It does
// not canonicalize or hash — callers must call Canonicalize/Hash (or
// CanonicalHash) before persisting or comparing packs.
func ParsePack(raw []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeValidation, "policy pack YAML parse failed").WithCode("POLICY_PACK_VALIDATION")
	}
	if p.Metadata.ID == "" {
		return nil, drifterrors.NewWithCode(drifterrors.ErrorTypeValidation, "POLICY_PACK_VALIDATION", "policy pack missing metadata.id")
	}
	return &p, nil
}

// Canonicalize produces the canonical JSON representation of raw PolicyPack
// YAML: object keys sorted at every depth, set-like arrays
// sorted, ordered arrays (rules, obligations) preserved in place,
// undefined values rendered as null, and empty objects dropped. The
// result is idempotent: Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(raw []byte) ([]byte, error) {
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeValidation, "policy pack YAML parse failed").WithCode("POLICY_PACK_VALIDATION")
	}
	normalized := normalizeYAMLValue(generic)
	canon := canonicalizeValue(normalized, "")
	return json.Marshal(canon)
}

// Hash returns the full 64-hex-char SHA-256 digest of the canonical form
// of raw PolicyPack YAML, and its first-16-char short form.
func Hash(raw []byte) (full string, short string, err error) {
	canon, err := Canonicalize(raw)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(canon)
	full = hex.EncodeToString(sum[:])
	return full, full[:16], nil
}

// normalizeYAMLValue converts yaml.v3's decoded types (map[string]interface{}
// keys are already strings for yaml.v3 when unmarshalled into interface{},
// but nested maps may come back as map[string]interface{} too) into a tree
// of map[string]interface{}, []interface{}, and scalars only.
func normalizeYAMLValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLValue(val)
		}
		return out
	default:
		return v
	}
}

// canonicalizeValue recursively canonicalizes a normalized value at the
// given dotted path (document-root-relative, "[]" substituted for array
// indices) per the rules in the Canonicalize doc comment.
func canonicalizeValue(v interface{}, path string) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		if len(t) == 0 {
			return nil // empty objects become undefined and are dropped
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			cv := canonicalizeValue(t[k], childPath)
			if cv == nil {
				if _, isMap := t[k].(map[string]interface{}); isMap {
					continue // dropped empty object, not a legitimate null
				}
			}
			out[k] = cv
		}
		return out
	case []interface{}:
		elemPath := path + "[]"
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = canonicalizeValue(val, elemPath)
		}
		if isSetLikePath(path) {
			sort.Slice(out, func(i, j int) bool {
				return jsonLess(out[i], out[j])
			})
		}
		return out
	default:
		return t
	}
}

// isSetLikePath reports whether path matches one of the explicit
// set-like array paths, including the "rules[].obligations" fan-out for
// paths nested under an array of rules.
func isSetLikePath(path string) bool {
	if setLikePaths[path] {
		return true
	}
	return false
}

// jsonLess orders two canonicalized scalar/composite values for stable
// sorting of set-like arrays: their marshaled JSON compared byte-wise.
func jsonLess(a, b interface{}) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) < string(bb)
}
