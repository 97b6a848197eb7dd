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

package docadapter

import "strings"

const (
	managedStartMarker = "<!-- DRIFT_AGENT_MANAGED_START -->"
	managedEndMarker   = "<!-- DRIFT_AGENT_MANAGED_END -->"
)

// ManagedRegion is the editable window a document may declare. When absent,
// HasRegion is false and the caller must fall back to owner-block + section-
// target ranges for its allowed-edit check.
type ManagedRegion struct {
	HasRegion bool
	Start     int // byte offset of the first character after the start marker
	End       int // byte offset of the start of the end marker
}

// FindManagedRegion locates the managed-region markers in content, if
// present.
func FindManagedRegion(content string) ManagedRegion {
	startIdx := strings.Index(content, managedStartMarker)
	if startIdx < 0 {
		return ManagedRegion{}
	}
	bodyStart := startIdx + len(managedStartMarker)
	endIdx := strings.Index(content[bodyStart:], managedEndMarker)
	if endIdx < 0 {
		return ManagedRegion{}
	}
	return ManagedRegion{HasRegion: true, Start: bodyStart, End: bodyStart + endIdx}
}

// WithinManagedRegion reports whether the half-open byte range
// [rangeStart, rangeEnd) lies entirely within r. Callers with no managed
// region (r.HasRegion == false) must use a different allowed-range check
// — this function always returns false in that case.
func WithinManagedRegion(r ManagedRegion, rangeStart, rangeEnd int) bool {
	if !r.HasRegion {
		return false
	}
	return rangeStart >= r.Start && rangeEnd <= r.End
}

// ReplaceManagedRegion substitutes newBody for the content strictly
// between the markers, leaving the markers themselves and everything
// outside them untouched.
func ReplaceManagedRegion(content string, r ManagedRegion, newBody string) string {
	if !r.HasRegion {
		return content
	}
	return content[:r.Start] + newBody + content[r.End:]
}
