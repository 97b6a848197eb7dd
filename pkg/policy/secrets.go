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

import "regexp"

// defaultSecretPatterns are the trusted, native secret-scan regexes used
// by the no_secrets_in_diff comparator. They are compiled
// once at package init since they never come from untrusted input.
var defaultSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)aws_secret_access_key\s*[:=]\s*['"]?[A-Za-z0-9/+=]{20,}`),
	regexp.MustCompile(`-----BEGIN (RSA|EC|OPENSSH|DSA) PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret)\s*[:=]\s*['"][A-Za-z0-9_\-]{16,}['"]`),
	regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
}

// compileUserPattern compiles a user-supplied regex for the matches
// operator and the custom-pattern half of no_secrets_in_diff. Go's
// regexp package compiles to RE2 automata, which run in time linear in
// input length regardless of the pattern, so untrusted regexes can't
// blow up matching time; no third-party engine swap is needed (see
// DESIGN.md).
func compileUserPattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

// ContainsSecret reports whether diff matches any default secret pattern
// or any of the workspace's additional user-supplied patterns.
func ContainsSecret(diff string, userPatterns []string) (bool, string) {
	for _, re := range defaultSecretPatterns {
		if re.MatchString(diff) {
			return true, re.String()
		}
	}
	for _, p := range userPatterns {
		re, err := compileUserPattern(p)
		if err != nil {
			continue
		}
		if re.MatchString(diff) {
			return true, p
		}
	}
	return false, ""
}
