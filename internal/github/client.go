// Package github wraps the GitHub REST API for repository discovery and
// per-repository metadata fetches. Nothing here throws past its boundary:
// search outcomes are tagged results, optional fetches report absence with
// a bool.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v55/github"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"

	"github.com/gaslibhub/crawler/internal/domain"
	apperrors "github.com/gaslibhub/crawler/internal/errors"
)

// maxSearchTags caps how many topic tags are combined into one query;
// extra tags are silently dropped.
const maxSearchTags = 5

// Client is the authenticated GitHub API client.
type Client struct {
	gh          *gh.Client
	limiter     *RateLimiter
	readmeCache *lru.Cache[string, string]
	commitCache *lru.Cache[string, time.Time]
	log         *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	maxPerHour int
	cacheSize  int
	logger     *slog.Logger
}

// WithHTTPClient replaces the oauth2-authenticated HTTP client. Used by
// tests to install a mock transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithRequestsPerHour caps the request rate. n <= 0 removes the cap.
func WithRequestsPerHour(n int) Option {
	return func(o *clientOptions) { o.maxPerHour = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient creates a GitHub client authenticated with the given token.
func NewClient(token string, opts ...Option) *Client {
	o := clientOptions{
		maxPerHour: 3600,
		cacheSize:  256,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if hc == nil {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(context.Background(), ts)
	}

	rc, _ := lru.New[string, string](o.cacheSize)
	cc, _ := lru.New[string, time.Time](o.cacheSize)

	return &Client{
		gh:          gh.NewClient(hc),
		limiter:     NewRateLimiter(o.maxPerHour),
		readmeCache: rc,
		commitCache: cc,
		log:         o.logger,
	}
}

// BuildTopicQuery combines up to maxSearchTags non-empty tags into one
// topic-search query. A single tag gets no OR combinator.
func BuildTopicQuery(tags []string) string {
	var parts []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		parts = append(parts, "topic:"+t)
		if len(parts) == maxSearchTags {
			break
		}
	}
	return strings.Join(parts, " OR ")
}

// FetchRepositoryInfo retrieves repository metadata.
func (c *Client) FetchRepositoryInfo(ctx context.Context, owner, repo string) (*domain.RepositoryRef, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	c.updateRate(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository %s/%s: %w", owner, repo, err)
	}
	ref := toRef(r)
	return &ref, nil
}

// FetchReadme retrieves and decodes the repository README. The second
// return value is false when the README is missing or cannot be decoded;
// a missing README is never an error.
func (c *Client) FetchReadme(ctx context.Context, owner, repo string) (string, bool) {
	key := owner + "/" + repo
	if text, ok := c.readmeCache.Get(key); ok {
		return text, true
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", false
	}
	content, resp, err := c.gh.Repositories.GetReadme(ctx, owner, repo, nil)
	c.updateRate(resp)
	if err != nil {
		c.log.Debug("no readme", "repo", key, "error", err)
		return "", false
	}
	text, err := content.GetContent() // decodes the base64 payload
	if err != nil {
		c.log.Debug("failed to decode readme", "repo", key, "error", err)
		return "", false
	}
	c.readmeCache.Add(key, text)
	return text, true
}

// FetchLastCommitDate retrieves the timestamp of the latest commit on the
// default branch. The second return value is false when no commit date
// could be obtained.
func (c *Client) FetchLastCommitDate(ctx context.Context, owner, repo string) (time.Time, bool) {
	key := owner + "/" + repo
	if t, ok := c.commitCache.Get(key); ok {
		return t, true
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return time.Time{}, false
	}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	c.updateRate(resp)
	if err != nil || len(commits) == 0 {
		c.log.Debug("no commits", "repo", key, "error", err)
		return time.Time{}, false
	}
	commit := commits[0].GetCommit()
	date := commit.GetCommitter().GetDate().Time
	if date.IsZero() {
		date = commit.GetAuthor().GetDate().Time
	}
	if date.IsZero() {
		return time.Time{}, false
	}
	c.commitCache.Add(key, date)
	return date, true
}

// SearchPage searches a single result page of the topic query built from
// tags. If the combined query is rejected as unprocessable, it retries
// once with a minimal single-tag fallback before giving up.
func (c *Client) SearchPage(ctx context.Context, tags []string, page, perPage int, sort string) domain.TagSearchResult {
	query := BuildTopicQuery(tags)
	if query == "" {
		return domain.TagSearchResult{Error: "no valid tags to search"}
	}

	res, err := c.searchOnce(ctx, query, page, perPage, sort)
	if err != nil && apperrors.IsQueryRejected(err) && len(tags) > 1 {
		fallback := BuildTopicQuery(tags[:1])
		c.log.Warn("combined query rejected, retrying with fallback", "query", query, "fallback", fallback)
		res, err = c.searchOnce(ctx, fallback, page, perPage, sort)
	}
	if err != nil {
		return domain.TagSearchResult{Error: err.Error()}
	}

	refs := make([]domain.RepositoryRef, 0, len(res.Repositories))
	for _, r := range res.Repositories {
		refs = append(refs, toRef(r))
	}
	return domain.TagSearchResult{
		Success:        true,
		Repositories:   refs,
		TotalCount:     res.GetTotal(),
		RetrievedCount: len(refs),
	}
}

func (c *Client) searchOnce(ctx context.Context, query string, page, perPage int, sort string) (*gh.RepositoriesSearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	opts := &gh.SearchOptions{
		Sort:        sort,
		Order:       "desc",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}
	c.log.Debug("searching repositories", "query", query, "page", page)
	res, resp, err := c.gh.Search.Repositories(ctx, query, opts)
	c.updateRate(resp)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return nil, apperrors.NewQueryRejectedError(query, err)
		}
		return nil, fmt.Errorf("repository search failed: %w", err)
	}
	return res, nil
}

// SearchByTags paginates until maxResults repositories are accumulated or
// results run out, truncating the final list to the requested size.
func (c *Client) SearchByTags(ctx context.Context, tags []string, maxResults int, sort string) domain.TagSearchResult {
	if maxResults <= 0 {
		maxResults = 30
	}
	perPage := maxResults
	if perPage > 100 {
		perPage = 100
	}

	out := domain.TagSearchResult{}
	for page := 1; len(out.Repositories) < maxResults; page++ {
		res := c.SearchPage(ctx, tags, page, perPage, sort)
		if !res.Success {
			out.Error = res.Error
			out.RetrievedCount = len(out.Repositories)
			return out
		}
		if page == 1 {
			out.TotalCount = res.TotalCount
		}
		if len(res.Repositories) == 0 {
			break
		}
		out.Repositories = append(out.Repositories, res.Repositories...)
		if len(res.Repositories) < perPage {
			break
		}
	}
	if len(out.Repositories) > maxResults {
		out.Repositories = out.Repositories[:maxResults]
	}
	out.Success = true
	out.RetrievedCount = len(out.Repositories)
	return out
}

// SearchByPageRange issues one request per page in [startPage, endPage]
// with pageDelay between pages (not applied after the final page). An empty
// page stops the scan early: results come back in relevance order, so an
// empty page reliably signals exhaustion. A page failure aborts the
// remaining pages and surfaces on the result.
func (c *Client) SearchByPageRange(ctx context.Context, tags []string, startPage, endPage, perPage int, sort string, pageDelay time.Duration) domain.TagSearchResult {
	out := domain.TagSearchResult{}
	for page := startPage; page <= endPage; page++ {
		res := c.SearchPage(ctx, tags, page, perPage, sort)
		if !res.Success {
			out.Error = res.Error
			out.RetrievedCount = len(out.Repositories)
			return out
		}
		if page == startPage {
			out.TotalCount = res.TotalCount
		}
		if len(res.Repositories) == 0 {
			break
		}
		out.Repositories = append(out.Repositories, res.Repositories...)
		if page < endPage && pageDelay > 0 {
			if err := sleep(ctx, pageDelay); err != nil {
				break
			}
		}
	}
	out.Success = true
	out.RetrievedCount = len(out.Repositories)
	return out
}

// RateStatus exposes the last known upstream quota.
func (c *Client) RateStatus() (remaining int, resetAt time.Time) {
	return c.limiter.Status()
}

func (c *Client) updateRate(resp *gh.Response) {
	// a zero reset time means the response carried no rate headers
	if resp != nil && !resp.Rate.Reset.Time.IsZero() {
		c.limiter.Update(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}

func toRef(r *gh.Repository) domain.RepositoryRef {
	ref := domain.RepositoryRef{
		URL:         r.GetHTMLURL(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		StarCount:   r.GetStargazersCount(),
		Topics:      r.Topics,
		PushedAt:    r.GetPushedAt().Time,
	}
	if owner := r.GetOwner(); owner != nil {
		ref.OwnerName = owner.GetLogin()
		ref.OwnerURL = owner.GetHTMLURL()
	}
	if lic := r.GetLicense(); lic != nil {
		ref.LicenseName = lic.GetName()
		ref.LicenseURL = lic.GetURL()
	}
	return ref
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
