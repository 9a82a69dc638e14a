package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// CredentialSource supplies the GitHub identity used for API calls.
// Implemented by the credentials store so tokens can rotate at runtime.
type CredentialSource interface {
	GitHubUsername() (string, error)
	GitHubToken() (string, error)
}

// Client is a minimal GitHub REST client covering the repository,
// branch, issue, and pull request operations the tool catalog exposes.
// List responses are cached briefly to keep repeated lookups off the API.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
	cache   *cache.Cache
	backoff backoff
	log     *logrus.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at an alternate API root (tests, GHES).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCacheTTL sets how long list responses are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = cache.New(ttl, 2*ttl) }
}

// NewClient builds a GitHub API client.
func NewClient(creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		creds:   creds,
		cache:   cache.New(time.Minute, 2*time.Minute),
		backoff: defaultBackoff(),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request performs one authenticated API call, retrying rate limits and
// server errors with exponential backoff, and decodes the JSON response
// into out (which may be nil for 204 responses).
func (c *Client) request(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.creds.GitHubToken()
	if err != nil || token == "" {
		return ErrNoCredentials
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.backoff.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff.delay(attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "token "+token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		lastErr = c.decode(resp, out)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
		c.log.Warnf("GitHub request %s %s failed (attempt %d): %v", method, path, attempt+1, lastErr)
	}
	return lastErr
}

func (c *Client) decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	raw, _ := io.ReadAll(resp.Body)
	msg := "Unknown error"
	var errBody struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &errBody) == nil && errBody.Message != "" {
		msg = errBody.Message
	} else if len(raw) > 0 {
		msg = string(raw)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func (c *Client) username() (string, error) {
	u, err := c.creds.GitHubUsername()
	if err != nil || u == "" {
		return "", ErrNoCredentials
	}
	return u, nil
}

// CreateRepo creates a repository under the authenticated user. auto_init
// is left off so local initialization controls the first commit.
func (c *Client) CreateRepo(ctx context.Context, name string, private bool, description string) (map[string]any, error) {
	c.log.Infof("Creating GitHub repository: %s", name)
	body := map[string]any{
		"name":      name,
		"private":   private,
		"auto_init": false,
	}
	if description != "" {
		body["description"] = description
	}
	var repo map[string]any
	if err := c.request(ctx, http.MethodPost, "/user/repos", body, &repo); err != nil {
		return nil, err
	}
	c.invalidateLists()
	c.log.Infof("Repository created successfully: %v", repo["html_url"])
	return repo, nil
}

// ListRepos lists the user's repositories, most recently updated first.
func (c *Client) ListRepos(ctx context.Context, page, perPage int) ([]map[string]any, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 30
	}
	key := fmt.Sprintf("repos:%d:%d", page, perPage)
	if cached, found := c.cache.Get(key); found {
		return cached.([]map[string]any), nil
	}

	path := fmt.Sprintf("/user/repos?page=%d&per_page=%d&sort=updated&direction=desc", page, perPage)
	var repos []map[string]any
	if err := c.request(ctx, http.MethodGet, path, nil, &repos); err != nil {
		return nil, err
	}
	c.cache.Set(key, repos, cache.DefaultExpiration)
	return repos, nil
}

// GetRepo fetches one repository owned by the configured user.
func (c *Client) GetRepo(ctx context.Context, repoName string) (map[string]any, error) {
	user, err := c.username()
	if err != nil {
		return nil, err
	}
	var repo map[string]any
	path := fmt.Sprintf("/repos/%s/%s", user, url.PathEscape(repoName))
	if err := c.request(ctx, http.MethodGet, path, nil, &repo); err != nil {
		return nil, err
	}
	return repo, nil
}

// DeleteRepo deletes a repository owned by the configured user.
func (c *Client) DeleteRepo(ctx context.Context, repoName string) error {
	user, err := c.username()
	if err != nil {
		return err
	}
	c.log.Warnf("Deleting repository: %s", repoName)
	path := fmt.Sprintf("/repos/%s/%s", user, url.PathEscape(repoName))
	if err := c.request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.invalidateLists()
	return nil
}

// ListBranches lists the branches of a repository.
func (c *Client) ListBranches(ctx context.Context, repoName string) ([]map[string]any, error) {
	user, err := c.username()
	if err != nil {
		return nil, err
	}
	key := "branches:" + repoName
	if cached, found := c.cache.Get(key); found {
		return cached.([]map[string]any), nil
	}

	var branches []map[string]any
	path := fmt.Sprintf("/repos/%s/%s/branches", user, url.PathEscape(repoName))
	if err := c.request(ctx, http.MethodGet, path, nil, &branches); err != nil {
		return nil, err
	}
	c.cache.Set(key, branches, cache.DefaultExpiration)
	return branches, nil
}

// CreateBranch creates a branch ref from an existing branch's head SHA.
func (c *Client) CreateBranch(ctx context.Context, repoName, branchName, fromBranch string) (map[string]any, error) {
	user, err := c.username()
	if err != nil {
		return nil, err
	}
	if fromBranch == "" {
		fromBranch = "main"
	}

	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	path := fmt.Sprintf("/repos/%s/%s/git/refs/heads/%s", user, url.PathEscape(repoName), url.PathEscape(fromBranch))
	if err := c.request(ctx, http.MethodGet, path, nil, &ref); err != nil {
		return nil, err
	}

	body := map[string]any{
		"ref": "refs/heads/" + branchName,
		"sha": ref.Object.SHA,
	}
	var created struct {
		URL    string `json:"url"`
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	path = fmt.Sprintf("/repos/%s/%s/git/refs", user, url.PathEscape(repoName))
	if err := c.request(ctx, http.MethodPost, path, body, &created); err != nil {
		return nil, err
	}
	c.cache.Delete("branches:" + repoName)
	c.log.Infof("Branch '%s' created successfully", branchName)
	return map[string]any{"name": branchName, "sha": created.Object.SHA, "url": created.URL}, nil
}

// CreateIssue opens an issue.
func (c *Client) CreateIssue(ctx context.Context, repoName, title, body string, labels []string) (map[string]any, error) {
	user, err := c.username()
	if err != nil {
		return nil, err
	}
	payload := map[string]any{"title": title}
	if body != "" {
		payload["body"] = body
	}
	if len(labels) > 0 {
		payload["labels"] = labels
	}
	var issue map[string]any
	path := fmt.Sprintf("/repos/%s/%s/issues", user, url.PathEscape(repoName))
	if err := c.request(ctx, http.MethodPost, path, payload, &issue); err != nil {
		return nil, err
	}
	c.log.Infof("Issue created successfully: %v", issue["html_url"])
	return issue, nil
}

// CreatePullRequest opens a pull request from head into base.
func (c *Client) CreatePullRequest(ctx context.Context, repoName, head, base, title, body string) (map[string]any, error) {
	user, err := c.username()
	if err != nil {
		return nil, err
	}
	if base == "" {
		base = "main"
	}
	payload := map[string]any{"title": title, "head": head, "base": base}
	if body != "" {
		payload["body"] = body
	}
	var pr map[string]any
	path := fmt.Sprintf("/repos/%s/%s/pulls", user, url.PathEscape(repoName))
	if err := c.request(ctx, http.MethodPost, path, payload, &pr); err != nil {
		return nil, err
	}
	c.log.Infof("Pull request created successfully: %v", pr["html_url"])
	return pr, nil
}

// ListPullRequests lists pull requests by state (open, closed, all).
func (c *Client) ListPullRequests(ctx context.Context, repoName, state string) ([]map[string]any, error) {
	user, err := c.username()
	if err != nil {
		return nil, err
	}
	if state == "" {
		state = "open"
	}
	var prs []map[string]any
	path := fmt.Sprintf("/repos/%s/%s/pulls?state=%s", user, url.PathEscape(repoName), url.QueryEscape(state))
	if err := c.request(ctx, http.MethodGet, path, nil, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

// UpdateRepo patches repository settings. Only the provided fields are
// sent.
func (c *Client) UpdateRepo(ctx context.Context, repoName string, settings map[string]any) (map[string]any, error) {
	user, err := c.username()
	if err != nil {
		return nil, err
	}
	body := make(map[string]any, len(settings))
	for k, v := range settings {
		if v != nil {
			body[k] = v
		}
	}
	var repo map[string]any
	path := fmt.Sprintf("/repos/%s/%s", user, url.PathEscape(repoName))
	if err := c.request(ctx, http.MethodPatch, path, body, &repo); err != nil {
		return nil, err
	}
	c.invalidateLists()
	return repo, nil
}

// RemoteURL returns the authenticated https remote for a repository,
// suitable for git push without a credential helper.
func (c *Client) RemoteURL(repoName string) (string, error) {
	user, err := c.username()
	if err != nil {
		return "", err
	}
	token, err := c.creds.GitHubToken()
	if err != nil || token == "" {
		return "", ErrNoCredentials
	}
	return fmt.Sprintf("https://%s:%s@github.com/%s/%s.git", user, token, user, repoName), nil
}

// NormalizeRepoURL accepts either a full clone URL or a short
// "owner/repo" form and returns a canonical https URL.
func NormalizeRepoURL(raw string) (string, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "git@") {
		return raw, nil
	}
	parts := strings.Split(raw, "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return fmt.Sprintf("https://github.com/%s/%s.git", parts[0], strings.TrimSuffix(parts[1], ".git")), nil
	}
	return "", fmt.Errorf("invalid repository URL format: %q", raw)
}

func (c *Client) invalidateLists() {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, "repos:") {
			c.cache.Delete(key)
		}
	}
}
