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

// Package claims deterministically parses a fetched document into
// structured claims: an outline of headings, bounded extracted
// sections, an optional owner block, and the same domain.BaselineArtifacts
// shape the Evidence Extractor produces from signals, so the Comparison
// Engine can diff the two sides uniformly.
package claims

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/driftsentry/driftcore/pkg/domain"
)

// Budgets bound the DocContext handed to the patch generator.
type Budgets struct {
	MaxDocCharsSentToLLM int
	MaxSections          int
	MaxSectionChars       int
}

// DefaultBudgets are conservative context-window defaults for
// LLM-bound payloads.
var DefaultBudgets = Budgets{
	MaxDocCharsSentToLLM: 12000,
	MaxSections:          20,
	MaxSectionChars:       2000,
}

// ExtractedSection is one heading-delimited region of the document.
type ExtractedSection struct {
	Heading   string
	Level     int
	StartByte int
	EndByte   int
	Reason    string
}

// OwnerBlock is a recognized ownership declaration within the document
// (e.g. a "## Owners" section or a CODEOWNERS-style line).
type OwnerBlock struct {
	Heading   string
	StartByte int
	EndByte   int
	Owners    []string
}

// DocContext is the bounded, deterministic document representation
// handed onward to the comparison engine and patch generator.
type DocContext struct {
	Outline                  []string
	Sections                 []ExtractedSection
	Owner                    *OwnerBlock
	NormalizedFulltextSha256 string
	Artifacts                domain.BaselineArtifacts
	Truncated                bool
}

var (
	headingPattern  = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+?)\s*$`)
	ownerHeading    = regexp.MustCompile(`(?i)^owners?$|^maintainers?$|^on-?call$`)
	ownerLinePattern = regexp.MustCompile(`(?m)^\s*[-*]\s*@([a-zA-Z0-9_\-/]+)`)
	stepLinePattern  = regexp.MustCompile(`(?m)^\s*\d+\.\s+(.+)$`)
	codeCommandPattern = regexp.MustCompile("(?m)^\\s*```(?:bash|sh|shell)?\\n([\\s\\S]*?)```")
)

// Extract parses raw markdown-ish document content into a DocContext.
// It is deterministic: the same content always produces the same
// outline, sections and hash.
func Extract(content string, budgets Budgets) DocContext {
	sections := extractSections(content)
	outline := make([]string, 0, len(sections))
	for _, s := range sections {
		outline = append(outline, s.Heading)
	}

	truncated := false
	if len(sections) > budgets.MaxSections {
		sections = sections[:budgets.MaxSections]
		truncated = true
	}
	for i, s := range sections {
		if s.EndByte-s.StartByte > budgets.MaxSectionChars {
			sections[i].EndByte = s.StartByte + budgets.MaxSectionChars
			truncated = true
		}
	}

	owner := findOwnerBlock(content, sections)
	artifacts := extractArtifacts(content)
	normalized := normalizeFulltext(content)

	return DocContext{
		Outline:                  outline,
		Sections:                 sections,
		Owner:                    owner,
		NormalizedFulltextSha256: sha256Hex(normalized),
		Artifacts:                artifacts,
		Truncated:                truncated,
	}
}

func extractSections(content string) []ExtractedSection {
	locs := headingPattern.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}

	sections := make([]ExtractedSection, 0, len(locs))
	for i, loc := range locs {
		level := len(content[loc[2]:loc[3]])
		heading := strings.TrimSpace(content[loc[4]:loc[5]])
		start := loc[1]
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections = append(sections, ExtractedSection{
			Heading:   heading,
			Level:     level,
			StartByte: start,
			EndByte:   end,
			Reason:    "heading_delimited",
		})
	}
	return sections
}

func findOwnerBlock(content string, sections []ExtractedSection) *OwnerBlock {
	for _, s := range sections {
		if ownerHeading.MatchString(strings.TrimSpace(s.Heading)) {
			body := content[s.StartByte:s.EndByte]
			matches := ownerLinePattern.FindAllStringSubmatch(body, -1)
			owners := make([]string, 0, len(matches))
			for _, m := range matches {
				owners = append(owners, m[1])
			}
			return &OwnerBlock{Heading: s.Heading, StartByte: s.StartByte, EndByte: s.EndByte, Owners: owners}
		}
	}
	return nil
}

func extractArtifacts(content string) domain.BaselineArtifacts {
	var art domain.BaselineArtifacts

	var commands []string
	for _, block := range codeCommandPattern.FindAllStringSubmatch(content, -1) {
		for _, line := range strings.Split(strings.TrimSpace(block[1]), "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "$"))
			if line != "" {
				commands = append(commands, line)
			}
		}
	}
	art.Commands = dedupe(commands)

	var steps []string
	for _, m := range stepLinePattern.FindAllStringSubmatch(content, -1) {
		steps = append(steps, strings.TrimSpace(m[1]))
	}
	art.Steps = steps

	return art
}

// normalizeFulltext collapses whitespace runs so trivial formatting
// changes (trailing spaces, blank-line count) do not change the
// document's content hash.
func normalizeFulltext(content string) string {
	fields := strings.Fields(content)
	return strings.Join(fields, " ")
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
