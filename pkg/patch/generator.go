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

package patch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/claims"
	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/llm"
	"github.com/driftsentry/driftcore/pkg/policy"
)

// maxGenerateAttempts caps validation-failure retries before the
// candidate fails permanently.
const maxGenerateAttempts = 3

// generateSchema is the JSON schema the LLM's response must satisfy: a
// unified diff plus the byte range it claims to edit.
const generateSchema = `{
  "type": "object",
  "required": ["unifiedDiff", "editStartByte", "editEndByte", "summary"],
  "properties": {
    "unifiedDiff": {"type": "string"},
    "proposedContent": {"type": "string"},
    "editStartByte": {"type": "integer"},
    "editEndByte": {"type": "integer"},
    "summary": {"type": "string"}
  }
}`

// generatedPatch is the decoded shape of generateSchema.
type generatedPatch struct {
	UnifiedDiff     string `json:"unifiedDiff"`
	ProposedContent string `json:"proposedContent"`
	EditStartByte   int    `json:"editStartByte"`
	EditEndByte     int    `json:"editEndByte"`
	Summary         string `json:"summary"`
}

// GenerateResult is the validated output of Generator.Generate.
type GenerateResult struct {
	ProposedContent string
	Summary         string
	Attempts        int
}

// Generator drives the LLM call and its validators.
type Generator struct {
	client llm.Client
	log    logr.Logger
}

func NewGenerator(client llm.Client, log logr.Logger) *Generator {
	return &Generator{client: client, log: log}
}

// Generate produces a validated patch for one target document. style
// and docCtx scope the prompt; originalContent and region bound the
// validators. It retries on validation failure up to maxGenerateAttempts
// times, rebuilding nothing about the request between attempts beyond
// telling the model what failed.
func (g *Generator) Generate(ctx context.Context, style string, docCtx claims.DocContext, originalContent string, region docadapter.ManagedRegion, budgets claims.Budgets) (*GenerateResult, error) {
	var lastErr error
	feedback := ""

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		resp, err := g.client.Generate(ctx, llm.Request{
			SystemPrompt: systemPrompt(style),
			UserPrompt:   userPrompt(docCtx, originalContent, budgets, feedback),
			SchemaName:   "generated_patch",
			Schema:       []byte(generateSchema),
			MaxTokens:    2000,
		})
		if err != nil {
			return nil, err
		}

		var gp generatedPatch
		if err := json.Unmarshal(resp.JSON, &gp); err != nil {
			lastErr = drifterrors.NewWithCode(drifterrors.ErrorTypeValidation, "LLM_SCHEMA_MISMATCH", err.Error())
			feedback = "your previous response did not match the required JSON schema: " + err.Error()
			continue
		}

		if err := validate(gp, originalContent, region); err != nil {
			lastErr = err
			feedback = "your previous response failed validation: " + err.Error()
			g.log.V(1).Info("patch generation validation failed", "attempt", attempt, "reason", err.Error())
			continue
		}

		return &GenerateResult{ProposedContent: gp.ProposedContent, Summary: gp.Summary, Attempts: attempt}, nil
	}

	return nil, drifterrors.Wrap(lastErr, drifterrors.ErrorTypeValidation, "patch generation exhausted retries")
}

// validate enforces every invariant names: the edit lies within the allowed
// range, no secret is reintroduced, and managed-region markers survive
// verbatim.
func validate(gp generatedPatch, originalContent string, region docadapter.ManagedRegion) error {
	if gp.ProposedContent == "" {
		return fmt.Errorf("empty proposedContent")
	}
	if region.HasRegion && !docadapter.WithinManagedRegion(region, gp.EditStartByte, gp.EditEndByte) {
		return fmt.Errorf("edit range [%d,%d) falls outside the managed region [%d,%d)", gp.EditStartByte, gp.EditEndByte, region.Start, region.End)
	}
	if region.HasRegion {
		if !strings.Contains(gp.ProposedContent, "<!-- DRIFT_AGENT_MANAGED_START -->") || !strings.Contains(gp.ProposedContent, "<!-- DRIFT_AGENT_MANAGED_END -->") {
			return fmt.Errorf("proposed content dropped a managed-region marker")
		}
	}
	if ok, match := policy.ContainsSecret(gp.UnifiedDiff, nil); ok {
		return fmt.Errorf("proposed diff reintroduces a secret pattern: %s", match)
	}
	return nil
}

func systemPrompt(style string) string {
	return fmt.Sprintf("You are updating documentation to match observed system behavior. The requested patch style is %q. Respond only with JSON matching the provided schema. Never touch text outside the allowed edit range or remove a managed-region marker.", style)
}

func userPrompt(docCtx claims.DocContext, originalContent string, budgets claims.Budgets, feedback string) string {
	content := originalContent
	if len(content) > budgets.MaxDocCharsSentToLLM {
		content = content[:budgets.MaxDocCharsSentToLLM]
	}
	var b strings.Builder
	if feedback != "" {
		b.WriteString(feedback)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Document outline: %v\n", docCtx.Outline)
	fmt.Fprintf(&b, "Current content:\n%s\n", content)
	return b.String()
}
