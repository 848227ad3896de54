// internal/github/client.go
package github

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	custom_errors "chapter-ingest/internal/errors"
	"chapter-ingest/internal/model"
)

const perPage = 100

// Client is a wrapper around the go-github client.
type Client struct {
	gh          *github.Client
	logger      *slog.Logger
	concurrency int
}

// NewClient creates and configures a new Client instance. Requests pass through
// go-github-ratelimit, then oauth2, then an in-memory httpcache for ETag revalidation.
// An empty baseURL targets api.github.com.
func NewClient(token, baseURL string, concurrency int, logger *slog.Logger) (*Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	authTransport := &oauth2.Transport{
		Source: ts,
		Base:   httpcache.NewMemoryCacheTransport(),
	}
	rateLimitClient := github_ratelimit.NewClient(authTransport)

	return NewClientWithHTTPClient(rateLimitClient, baseURL, concurrency, logger)
}

// NewClientWithHTTPClient builds a Client on top of an existing http.Client.
// Tests use it to point the client at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, concurrency int, logger *slog.Logger) (*Client, error) {
	gh := github.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:          gh,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// FetchRepos lists every repository of an organization, newest first.
// With withContributors set, each repository is enriched with its contributors;
// enrichment is best-effort and a failing repository gets an empty list.
func (c *Client) FetchRepos(ctx context.Context, org string, withContributors bool) ([]model.RemoteRepository, error) {
	org = strings.TrimSpace(org)
	if org == "" || strings.Contains(org, "/") {
		return nil, &custom_errors.ValidationError{Field: "organization", Reason: fmt.Sprintf("%q is not a valid organization name", org)}
	}

	repos, err := c.listOrgRepos(ctx, org)
	if err != nil {
		return nil, err
	}

	if withContributors {
		if err := c.enrich(ctx, repos); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(repos, func(a, b model.RemoteRepository) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return repos, nil
}

// FetchContributors fetches all contributors of a repository given as 'owner/name'.
// It handles API pagination transparently.
func (c *Client) FetchContributors(ctx context.Context, repoFullName string) ([]model.Contributor, error) {
	owner, name, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	all := []model.Contributor{}
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for {
		c.logger.Debug("Fetching contributors page", "repo", repoFullName, "page", opts.Page)

		contributors, resp, err := c.gh.Repositories.ListContributors(ctx, owner, name, opts)
		if err != nil {
			return nil, remoteError("/repos/"+repoFullName+"/contributors", opts.Page, resp, err)
		}
		c.logRateLimit(resp, repoFullName+"/contributors", opts.Page, len(contributors))

		for _, contributor := range contributors {
			all = append(all, toInternalContributor(contributor))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

func (c *Client) listOrgRepos(ctx context.Context, org string) ([]model.RemoteRepository, error) {
	all := []model.RemoteRepository{}
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for {
		c.logger.Debug("Fetching repositories page", "org", org, "page", opts.Page)

		repos, resp, err := c.gh.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, remoteError("/orgs/"+org+"/repos", opts.Page, resp, err)
		}
		c.logRateLimit(resp, org+"/repos", opts.Page, len(repos))

		for _, repo := range repos {
			all = append(all, toInternalRepository(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// enrich fills in Contributors for every repository concurrently. Each goroutine
// owns exactly one slot of the slice, so the input order is preserved.
// Per-repository failures are tolerated; cancellation of ctx is not.
func (c *Client) enrich(ctx context.Context, repos []model.RemoteRepository) error {
	g, gctx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	for i := range repos {
		g.Go(func() error {
			contributors, err := c.FetchContributors(gctx, repos[i].FullName)
			if err != nil {
				c.logger.Warn("Failed to fetch contributors, continuing without them", "repo", repos[i].FullName, "error", err)
				contributors = []model.Contributor{}
			}
			repos[i].Contributors = contributors
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enriching repositories: %w", err)
	}
	return nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func (c *Client) logRateLimit(resp *github.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}
	c.logger.Debug("GitHub API call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)
	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		c.logger.Warn("GitHub rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// remoteError converts a go-github failure into a RemoteAPIError.
func remoteError(endpoint string, page int, resp *github.Response, err error) error {
	remote := &custom_errors.RemoteAPIError{
		Service:  "github",
		Endpoint: fmt.Sprintf("%s?page=%d", endpoint, cmp.Or(page, 1)),
		Err:      err,
	}
	if resp != nil && resp.Response != nil {
		remote.StatusCode = resp.StatusCode
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr):
		reset := rateErr.Rate.Reset.Time
		remote.ResetAt = &reset
	case errors.As(err, &abuseErr):
		if abuseErr.RetryAfter != nil {
			reset := time.Now().Add(*abuseErr.RetryAfter)
			remote.ResetAt = &reset
		}
	}
	return remote
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &custom_errors.ErrInvalidRepoFormat{Repo: fullName}
	}
	return parts[0], parts[1], nil
}

// toInternalRepository translates a github.Repository object to our internal model.
func toInternalRepository(r *github.Repository) model.RemoteRepository {
	return model.RemoteRepository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		URL:         r.GetHTMLURL(),
		ForksCount:  r.GetForksCount(),
		CreatedAt:   r.GetCreatedAt().Time,
		PushedAt:    r.GetPushedAt().Time,
	}
}

func toInternalContributor(c *github.Contributor) model.Contributor {
	return model.Contributor{
		ID:            c.GetID(),
		Login:         c.GetLogin(),
		AvatarURL:     c.GetAvatarURL(),
		Contributions: c.GetContributions(),
	}
}
