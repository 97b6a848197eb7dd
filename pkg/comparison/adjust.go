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

package comparison

import "strings"

// KeywordHints is a source-specific positive/negative keyword set used
// to adjust confidence after the structural comparison.
type KeywordHints struct {
	Positive []string
	Negative []string
}

// DefaultGitHubPRHints are the keyword hints applied to a PR title/body
// when classifying instruction or process drift.
var DefaultGitHubPRHints = KeywordHints{
	Positive: []string{"breaking change", "migration", "deprecat", "renamed", "removed", "no longer"},
	Negative: []string{"typo", "formatting", "whitespace", "comment only", "docs only"},
}

// AdjustConfidence applies the keyword-hint boost/penalty: +0.10 for
// >= 3 positive source-specific keywords and no negative ones, -0.15 for
// >= 2 negative keywords, clamped to [0,1].
func AdjustConfidence(confidence float64, text string, hints KeywordHints) float64 {
	lower := strings.ToLower(text)
	positive := countMatches(lower, hints.Positive)
	negative := countMatches(lower, hints.Negative)

	adjusted := confidence
	switch {
	case negative >= 2:
		adjusted -= 0.15
	case positive >= 3 && negative == 0:
		adjusted += 0.10
	}
	return clamp01(adjusted)
}

// BoostFromJoiner applies the signal joiner's confidence boost on top of the
// comparison's own confidence, clamped to [0,1].
func BoostFromJoiner(confidence, boost float64) float64 {
	return clamp01(confidence + boost)
}

func countMatches(text string, needles []string) int {
	count := 0
	for _, n := range needles {
		if strings.Contains(text, n) {
			count++
		}
	}
	return count
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
