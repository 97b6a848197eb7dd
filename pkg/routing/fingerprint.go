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

// Package routing implements cross-source correlation, the
// fingerprint/suppression learning loop, and the notification routing
// policy.
package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// toolAliases collapses synonymous tool names to one canonical token
// before fingerprinting.
var toolAliases = map[string]string{
	"kubectl": "k8s_tool",
	"helm":    "k8s_tool",
	"docker":  "container_tool",
	"podman":  "container_tool",
}

var (
	envSuffixPattern = regexp.MustCompile(`(?i)-(dev|staging|stage|prod|production|qa|test)(\b|$)`)
	portPattern      = regexp.MustCompile(`:\d{2,5}\b`)
	apiVersionPattern = regexp.MustCompile(`(?i)\bv[0-9]+(\.[0-9]+)*\b`)
)

// NormalizeToken canonicalizes one token before it enters a fingerprint:
// collapses environment suffixes, maps tool aliases, and replaces port
// numbers and API versions with placeholders.
func NormalizeToken(tok string) string {
	t := strings.ToLower(strings.TrimSpace(tok))
	if alias, ok := toolAliases[t]; ok {
		return alias
	}
	t = envSuffixPattern.ReplaceAllString(t, "")
	t = portPattern.ReplaceAllString(t, ":<port>")
	t = apiVersionPattern.ReplaceAllString(t, "<version>")
	return t
}

// normalizeAll normalizes and de-duplicates a token slice, sorted for a
// stable fingerprint.
func normalizeAll(toks []string) []string {
	seen := make(map[string]bool, len(toks))
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		n := NormalizeToken(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// FingerprintConfidence is the match confidence for each fingerprint
// level.
var FingerprintConfidence = map[domain.SuppressionLevel]float64{
	domain.SuppressionStrict: 0.95,
	domain.SuppressionMedium: 0.80,
	domain.SuppressionBroad:  0.60,
}

func sha256Prefix(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// Compute derives the three-level fingerprint set for a DriftCandidate
//: strict = source + target + driftType + all tokens;
// medium = source + target + driftType + top-10 tokens; broad = source +
// target-surface + driftType.
func Compute(sourceType domain.SourceType, targetSurface string, driftType domain.DriftType, tokens []string) domain.Fingerprints {
	norm := normalizeAll(tokens)
	top10 := norm
	if len(top10) > 10 {
		top10 = top10[:10]
	}

	return domain.Fingerprints{
		Strict: sha256Prefix(string(sourceType), targetSurface, string(driftType), strings.Join(norm, ",")),
		Medium: sha256Prefix(string(sourceType), targetSurface, string(driftType), strings.Join(top10, ",")),
		Broad:  sha256Prefix(string(sourceType), targetSurface, string(driftType)),
	}
}
