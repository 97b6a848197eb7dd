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

// Package llm wraps the Anthropic SDK behind the narrow, schema-validated
// surface the patch generator needs.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-logr/logr"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/internal/config"
)

// Request is one bounded generation call: a system prompt, the user
// payload (the caller's bounded DocContext serialized to text), and a
// JSON schema the response must validate against.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       json.RawMessage
	MaxTokens    int64
}

// Response carries the raw JSON returned by the model, already asserted
// to be well-formed JSON. Schema conformance beyond that is the
// caller's responsibility.
type Response struct {
	JSON       json.RawMessage
	InputTokens  int64
	OutputTokens int64
}

// Client is the narrow surface the patch generator depends on, so tests
// can substitute a fake without touching the SDK.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// anthropicClient is the only supported provider.
type anthropicClient struct {
	sdk   anthropic.Client
	model anthropic.Model
	log   logr.Logger
}

// NewClient builds the Anthropic-backed Client from process config.
// Unsupported providers fail fast rather than falling back silently.
func NewClient(cfg config.LLMConfig, log logr.Logger) (Client, error) {
	if cfg.Provider != "anthropic" {
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	opts := []option.RequestOption{}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return &anthropicClient{
		sdk:   anthropic.NewClient(opts...),
		model: anthropic.Model(cfg.Model),
		log:   log,
	}, nil
}

func (c *anthropicClient) Generate(ctx context.Context, req Request) (*Response, error) {
	msg, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: req.MaxTokens,
		System: []anthropic.TextBlockParam{{Text: req.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	})
	if err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "anthropic generate call failed")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if !json.Valid([]byte(text)) {
		return nil, drifterrors.NewWithCode(drifterrors.ErrorTypeValidation, "LLM_NON_JSON_RESPONSE", "model response was not valid JSON")
	}

	return &Response{
		JSON:         json.RawMessage(text),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}
