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

// Package comparison diffs extracted source evidence against document
// claims to classify drift type and confidence.
package comparison

import (
	"github.com/driftsentry/driftcore/pkg/domain"
)

// typeConfidence is one drift type's raw per-type confidence before
// tie-breaking, boosting or keyword adjustment.
type typeConfidence struct {
	driftType  domain.DriftType
	confidence float64
	conflicts  []string
	newContent []string
}

// Compare diffs source-side BaselineArtifacts against the document's
// claimed BaselineArtifacts and produces a domain.ComparisonResult.
func Compare(source, target domain.BaselineArtifacts) domain.ComparisonResult {
	var fired []typeConfidence

	if tc, ok := compareInstruction(source, target); ok {
		fired = append(fired, tc)
	}
	if tc, ok := compareEnvironment(source, target); ok {
		fired = append(fired, tc)
	}
	if tc, ok := compareProcess(source, target); ok {
		fired = append(fired, tc)
	}
	if tc, ok := compareOwnership(source, target); ok {
		fired = append(fired, tc)
	}

	coverageGaps := diffMissing(source.Scenarios, target.Scenarios)

	result := domain.ComparisonResult{
		HasCoverageGap: len(coverageGaps) > 0,
		CoverageGaps:   coverageGaps,
	}
	if len(fired) == 0 {
		return result
	}

	allTypes := make([]domain.DriftType, 0, len(fired))
	maxConfidence := 0.0
	var conflicts, newContent []string
	for _, tc := range fired {
		allTypes = append(allTypes, tc.driftType)
		if tc.confidence > maxConfidence {
			maxConfidence = tc.confidence
		}
		conflicts = append(conflicts, tc.conflicts...)
		newContent = append(newContent, tc.newContent...)
	}

	result.HasDrift = true
	result.AllDriftTypes = allTypes
	result.DriftType = domain.HighestPriorityDriftType(allTypes)
	result.Confidence = maxConfidence
	result.Conflicts = conflicts
	result.NewContent = newContent
	result.Recommendation = recommendationFor(result.DriftType, result.HasCoverageGap)
	return result
}

func compareInstruction(source, target domain.BaselineArtifacts) (typeConfidence, bool) {
	missingCommands := diffMissing(source.Commands, target.Commands)
	missingEndpoints := diffMissing(source.Endpoints, target.Endpoints)
	if len(missingCommands) == 0 && len(missingEndpoints) == 0 {
		return typeConfidence{}, false
	}
	total := len(missingCommands) + len(missingEndpoints)
	conf := confidenceFromCount(total, 0.6)
	return typeConfidence{
		driftType:  domain.DriftInstruction,
		confidence: conf,
		conflicts:  prefixAll("undocumented command/endpoint", append(missingCommands, missingEndpoints...)),
		newContent: append(missingCommands, missingEndpoints...),
	}, true
}

func compareEnvironment(source, target domain.BaselineArtifacts) (typeConfidence, bool) {
	missing := diffMissing(source.ConfigKeys, target.ConfigKeys)
	missing = append(missing, diffMissing(source.Versions, target.Versions)...)
	missing = append(missing, diffMissing(source.Tools, target.Tools)...)
	if len(missing) == 0 {
		return typeConfidence{}, false
	}
	return typeConfidence{
		driftType:  domain.DriftEnvironment,
		confidence: confidenceFromCount(len(missing), 0.55),
		conflicts:  prefixAll("environment detail changed", missing),
		newContent: missing,
	}, true
}

func compareProcess(source, target domain.BaselineArtifacts) (typeConfidence, bool) {
	missing := diffMissing(source.Steps, target.Steps)
	if len(missing) == 0 {
		return typeConfidence{}, false
	}
	return typeConfidence{
		driftType:  domain.DriftProcess,
		confidence: confidenceFromCount(len(missing), 0.5),
		conflicts:  prefixAll("procedure step not reflected in doc", missing),
		newContent: missing,
	}, true
}

func compareOwnership(source, target domain.BaselineArtifacts) (typeConfidence, bool) {
	missing := diffMissing(source.Owners, target.Owners)
	missing = append(missing, diffMissing(source.Teams, target.Teams)...)
	if len(missing) == 0 {
		return typeConfidence{}, false
	}
	return typeConfidence{
		driftType:  domain.DriftOwnership,
		confidence: confidenceFromCount(len(missing), 0.65),
		conflicts:  prefixAll("owner/team not reflected in doc", missing),
		newContent: missing,
	}, true
}

// confidenceFromCount scales a per-type base confidence upward with the
// number of corroborating artifacts, capped at 0.95 (reserving headroom
// for the joiner boost and keyword adjustment).
func confidenceFromCount(n int, base float64) float64 {
	conf := base + float64(n-1)*0.05
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

// diffMissing returns the entries present in source but absent from
// target, in source order.
func diffMissing(source, target []string) []string {
	if len(source) == 0 {
		return nil
	}
	present := make(map[string]struct{}, len(target))
	for _, t := range target {
		present[t] = struct{}{}
	}
	var missing []string
	for _, s := range source {
		if _, ok := present[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

func prefixAll(prefix string, items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = prefix + ": " + it
	}
	return out
}

func recommendationFor(t domain.DriftType, hasCoverageGap bool) domain.PatchStyle {
	switch t {
	case domain.DriftOwnership:
		return domain.StyleUpdateOwnership
	case domain.DriftProcess:
		return domain.StyleReplaceSteps
	case domain.DriftEnvironment:
		return domain.StyleUpdateDescription
	case domain.DriftInstruction:
		if hasCoverageGap {
			return domain.StyleAddSection
		}
		return domain.StyleAddNote
	default:
		return domain.StyleAddNote
	}
}
