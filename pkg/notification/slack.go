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

package notification

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
)

// Post is one outbound message: a channel or user ID and the rendered body.
type Post struct {
	Channel string
	Text    string
}

// PostResult identifies a delivered message so it can later be updated
// in place.
type PostResult struct {
	ChannelID string
	Timestamp string
}

// Sink is the narrow outbound-notification surface, so the routing/
// writeback stages never depend on the Slack SDK directly.
type Sink interface {
	Post(ctx context.Context, p Post) (*PostResult, error)
	Update(ctx context.Context, channelID, timestamp, text string) error
}

type slackSink struct {
	api       *slack.Client
	sanitizer *Sanitizer
}

func NewSlackSink(token string) Sink {
	return &slackSink{api: slack.New(token), sanitizer: NewSanitizer()}
}

func (s *slackSink) Post(ctx context.Context, p Post) (*PostResult, error) {
	text, err := s.sanitizer.SanitizeWithFallback(p.Text)
	if err != nil {
		text = p.Text // fallback text is already maximally redacted
	}
	channel, ts, err := s.api.PostMessageContext(ctx, p.Channel, slack.MsgOptionText(text, false))
	if err != nil {
		return nil, drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "slack post failed")
	}
	return &PostResult{ChannelID: channel, Timestamp: ts}, nil
}

func (s *slackSink) Update(ctx context.Context, channelID, timestamp, text string) error {
	clean, err := s.sanitizer.SanitizeWithFallback(text)
	if err != nil {
		clean = text
	}
	_, _, _, err = s.api.UpdateMessageContext(ctx, channelID, timestamp, slack.MsgOptionText(clean, false))
	if err != nil {
		return drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "slack update failed")
	}
	return nil
}

// RenderRoutingPost builds the notification body for a newly-routed
// drift candidate awaiting patch generation.
func RenderRoutingPost(driftID, priority, docPath, reason string) string {
	return fmt.Sprintf("Drift %s routed %s (%s) — target doc: %s", driftID, priority, reason, docPath)
}

// RenderProposalPost builds the notification body for a patch proposal
// awaiting human review.
func RenderProposalPost(driftID, style, summary string) string {
	return fmt.Sprintf("Patch proposal ready for %s (style: %s)\n%s\n\nReply approve / reject / snooze <duration>.", driftID, style, summary)
}
