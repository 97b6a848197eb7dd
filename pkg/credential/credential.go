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

// Package credential is a thin consumer of an external, opaque
// credential service: this core never performs the OAuth dance itself,
// it only asks the service for a token scoped to a workspace and system
// and hands back an oauth2.TokenSource an http.Client can be built from
// .
package credential

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// System identifies which external system a token is scoped to.
type System string

const (
	SystemGitHub     System = "github"
	SystemConfluence System = "confluence"
	SystemNotion     System = "notion"
	SystemSlack      System = "slack"
)

// Fetcher is the opaque credential service's client-facing surface: given
// a workspace and system it returns a currently-valid token. Callers
// never see how the service refreshes it (app installation tokens,
// long-lived PATs, whatever the system needs).
type Fetcher interface {
	Token(ctx context.Context, workspaceID string, system System) (*oauth2.Token, error)
}

// Client wraps a Fetcher behind oauth2.TokenSource so document and
// signal adapters can build a *http.Client the normal oauth2 way
// (oauth2.NewClient) without knowing a credential service exists.
type Client struct {
	fetcher Fetcher
}

func New(fetcher Fetcher) *Client {
	return &Client{fetcher: fetcher}
}

// TokenSource returns an oauth2.TokenSource scoped to one workspace and
// system, wrapped in oauth2.ReuseTokenSource so callers don't re-fetch on
// every request while the token the service handed back is still valid.
func (c *Client) TokenSource(ctx context.Context, workspaceID string, system System) oauth2.TokenSource {
	src := &fetcherTokenSource{ctx: ctx, fetcher: c.fetcher, workspaceID: workspaceID, system: system}
	return oauth2.ReuseTokenSource(nil, src)
}

// HTTPClient builds an authenticated *http.Client for the given
// workspace/system, the oauth2 package's standard client-construction
// idiom (oauth2.NewClient(ctx, tokenSource)).
func (c *Client) HTTPClient(ctx context.Context, workspaceID string, system System) *http.Client {
	return oauth2.NewClient(ctx, c.TokenSource(ctx, workspaceID, system))
}

type fetcherTokenSource struct {
	ctx         context.Context
	fetcher     Fetcher
	workspaceID string
	system      System
}

func (s *fetcherTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.fetcher.Token(s.ctx, s.workspaceID, s.system)
	if err != nil {
		return nil, fmt.Errorf("fetch %s credential for workspace %s: %w", s.system, s.workspaceID, err)
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = time.Now().Add(5 * time.Minute)
	}
	return tok, nil
}
