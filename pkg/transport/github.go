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

// Package transport holds the concrete document-system clients C3's
// adapters drive: docadapter.GitContentClient over the GitHub REST
// Contents/Git API. There is no GitHub SDK in the dependency pack, so
// this talks plain REST over the *http.Client an oauth2.TokenSource
// already authenticates (pkg/credential) — the same shape as the
// teacher's other REST integrations, just without a generated client.
package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
)

const githubAPIBase = "https://api.github.com"

// GitHubContentClient implements docadapter.GitContentClient against the
// GitHub REST API's contents and git-refs endpoints.
type GitHubContentClient struct {
	http    *http.Client
	baseURL string
}

func NewGitHubContentClient(httpClient *http.Client) *GitHubContentClient {
	return &GitHubContentClient{http: httpClient, baseURL: githubAPIBase}
}

// NewGitHubContentClientWithBaseURL overrides the API base URL, for
// pointing at a GitHub Enterprise instance or a test server.
func NewGitHubContentClientWithBaseURL(httpClient *http.Client, baseURL string) *GitHubContentClient {
	return &GitHubContentClient{http: httpClient, baseURL: baseURL}
}

type githubContentResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
}

func (c *GitHubContentClient) GetFile(ctx context.Context, repo, path string) (string, string, string, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repo, path)
	var resp githubContentResponse
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return "", "", "", err
	}

	decoded, err := base64.StdEncoding.DecodeString(resp.Content)
	if err != nil {
		return "", "", "", drifterrors.Wrap(err, drifterrors.ErrorTypeInternal, "decode github file content")
	}
	return string(decoded), resp.SHA, resp.HTMLURL, nil
}

func (c *GitHubContentClient) CreateBranch(ctx context.Context, repo, branchName, fromSHA string) error {
	body := map[string]string{
		"ref": "refs/heads/" + branchName,
		"sha": fromSHA,
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("%s/repos/%s/git/refs", c.baseURL, repo), body, nil)
}

func (c *GitHubContentClient) CommitFile(ctx context.Context, repo, branch, path, content, message string) (string, error) {
	// The contents API needs the file's current sha on the target branch
	// to perform an update rather than a create.
	var existing githubContentResponse
	getURL := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s", c.baseURL, repo, path, branch)
	_ = c.do(ctx, http.MethodGet, getURL, nil, &existing) // a brand-new path has no prior sha; ignore the 404

	body := map[string]interface{}{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
	}
	if existing.SHA != "" {
		body["sha"] = existing.SHA
	}

	var resp struct {
		Content githubContentResponse `json:"content"`
	}
	putURL := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repo, path)
	if err := c.do(ctx, http.MethodPut, putURL, body, &resp); err != nil {
		return "", err
	}
	return resp.Content.SHA, nil
}

func (c *GitHubContentClient) OpenPullRequest(ctx context.Context, repo, branch, title, body string) (int, string, error) {
	payload := map[string]string{
		"title": title,
		"body":  body,
		"head":  branch,
		"base":  "main",
	}
	var resp struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	url := fmt.Sprintf("%s/repos/%s/pulls", c.baseURL, repo)
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return 0, "", err
	}
	return resp.Number, resp.HTMLURL, nil
}

func (c *GitHubContentClient) do(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return drifterrors.Wrap(err, drifterrors.ErrorTypeInternal, "marshal github request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return drifterrors.Wrap(err, drifterrors.ErrorTypeInternal, "build github request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return drifterrors.Wrap(err, drifterrors.ErrorTypeNetwork, "github request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return drifterrors.New(drifterrors.ErrorTypeNetwork, fmt.Sprintf("github %s %s: %d %s", method, url, resp.StatusCode, string(raw)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return drifterrors.Wrap(err, drifterrors.ErrorTypeInternal, "decode github response")
		}
	}
	return nil
}
