// internal/api/api.go
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	custom_errors "chapter-ingest/internal/errors"
	"chapter-ingest/internal/model"
	"chapter-ingest/internal/projects"
	"chapter-ingest/internal/result"
	"chapter-ingest/internal/tweets"
)

type RepoFetcher interface {
	FetchRepos(ctx context.Context, org string, withContributors bool) ([]model.RemoteRepository, error)
	FetchContributors(ctx context.Context, repoFullName string) ([]model.Contributor, error)
}

type ProjectPublisher interface {
	Published(ctx context.Context) ([]model.PublishedProject, error)
	Publish(ctx context.Context, selected []model.RepoSelection) (int, error)
	Unpublish(ctx context.Context, ids []string) (int, error)
	Reconcile(ctx context.Context, checked []model.RepoSelection) (projects.ReconcileResult, error)
}

type TweetService interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]model.Tweet, error)
	FetchLatest(ctx context.Context, lastFetchedAt *time.Time) (tweets.FetchOutcome, error)
	FetchAll(ctx context.Context, lastFetchedAt *time.Time) (tweets.FetchOutcome, error)
	FetchedAt(ctx context.Context, name string) (*time.Time, error)
	UpdateFetchedAt(ctx context.Context, name string, ts time.Time) (time.Time, error)
}

// FetchHooks lets a caller follow a tweet fetch: OnStart runs before the gate is
// checked and OnDone receives the final result, whatever it is.
type FetchHooks struct {
	OnStart func()
	OnDone  func(result.Result[tweets.FetchOutcome])
}

// API is the caller-facing facade. Every method returns a tagged result and never an error.
type API struct {
	repos     RepoFetcher
	publisher ProjectPublisher
	tweets    TweetService
	logger    *slog.Logger

	defaultOrg string
}

type Option func(*API)

// WithDefaultOrg sets the organization used when FetchRepos is called with an empty org.
func WithDefaultOrg(org string) Option {
	return func(a *API) {
		a.defaultOrg = org
	}
}

func New(repos RepoFetcher, publisher ProjectPublisher, tweets TweetService, logger *slog.Logger, opts ...Option) *API {
	a := &API{
		repos:     repos,
		publisher: publisher,
		tweets:    tweets,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) FetchRepos(ctx context.Context, org string, withContributors bool) result.Result[[]model.RemoteRepository] {
	if org == "" {
		org = a.defaultOrg
	}
	repos, err := a.repos.FetchRepos(ctx, org, withContributors)
	a.logFailure("fetch repositories", err, "org", org)
	return result.From(repos, err, fmt.Sprintf("%d repositories", len(repos)))
}

func (a *API) FetchContributors(ctx context.Context, repoFullName string) result.Result[[]model.Contributor] {
	contributors, err := a.repos.FetchContributors(ctx, repoFullName)
	a.logFailure("fetch contributors", err, "repo", repoFullName)
	return result.From(contributors, err, fmt.Sprintf("%d contributors", len(contributors)))
}

func (a *API) GetPublishedRepos(ctx context.Context) result.Result[[]model.PublishedProject] {
	published, err := a.publisher.Published(ctx)
	a.logFailure("list published repositories", err)
	return result.From(published, err, "")
}

func (a *API) PublishRepos(ctx context.Context, selected []model.RepoSelection) result.Result[int] {
	n, err := a.publisher.Publish(ctx, selected)
	a.logFailure("publish repositories", err)
	return result.From(n, err, fmt.Sprintf("%d repositories published", n))
}

func (a *API) UnpublishRepos(ctx context.Context, ids []string) result.Result[int] {
	n, err := a.publisher.Unpublish(ctx, ids)
	a.logFailure("unpublish repositories", err)
	return result.From(n, err, fmt.Sprintf("%d repositories unpublished", n))
}

func (a *API) ReconcilePublished(ctx context.Context, checked []model.RepoSelection) result.Result[projects.ReconcileResult] {
	diff, err := a.publisher.Reconcile(ctx, checked)
	a.logFailure("reconcile published repositories", err)
	return result.From(diff, err, fmt.Sprintf("%d published, %d unpublished", len(diff.Published), len(diff.Unpublished)))
}

func (a *API) FetchTweetCount(ctx context.Context) result.Result[int64] {
	n, err := a.tweets.Count(ctx)
	a.logFailure("count tweets", err)
	return result.From(n, err, "")
}

func (a *API) FetchTweetsFromDB(ctx context.Context) result.Result[[]model.Tweet] {
	list, err := a.tweets.List(ctx)
	a.logFailure("list tweets", err)
	return result.From(list, err, "")
}

func (a *API) HandleFetchLatestTweet(ctx context.Context, lastFetchedAt *time.Time, hooks FetchHooks) result.Result[tweets.FetchOutcome] {
	return a.handleFetch(ctx, hooks, "fetch latest tweet", func() (tweets.FetchOutcome, error) {
		return a.tweets.FetchLatest(ctx, lastFetchedAt)
	})
}

func (a *API) HandleFetchAllTweets(ctx context.Context, lastFetchedAt *time.Time, hooks FetchHooks) result.Result[tweets.FetchOutcome] {
	return a.handleFetch(ctx, hooks, "fetch all tweets", func() (tweets.FetchOutcome, error) {
		return a.tweets.FetchAll(ctx, lastFetchedAt)
	})
}

// HandleUpdateFetchedAt reads the marker when ts is nil and advances it otherwise;
// a zero *ts advances it to now.
// Data is nil when the marker has never been set.
func (a *API) HandleUpdateFetchedAt(ctx context.Context, name string, ts *time.Time) result.Result[*time.Time] {
	if ts == nil {
		current, err := a.tweets.FetchedAt(ctx, name)
		a.logFailure("read fetch marker", err, "marker", name)
		return result.From(current, err, "")
	}

	stored, err := a.tweets.UpdateFetchedAt(ctx, name, *ts)
	a.logFailure("update fetch marker", err, "marker", name)
	return result.From(&stored, err, "")
}

func (a *API) handleFetch(ctx context.Context, hooks FetchHooks, op string, fetch func() (tweets.FetchOutcome, error)) result.Result[tweets.FetchOutcome] {
	if hooks.OnStart != nil {
		hooks.OnStart()
	}

	outcome, err := fetch()
	a.logFailure(op, err)
	res := result.From(outcome, err, fmt.Sprintf("%d new tweets", outcome.Inserted))

	if hooks.OnDone != nil {
		hooks.OnDone(res)
	}
	return res
}

// logFailure logs hard failures; policy denials are expected and logged by the services.
func (a *API) logFailure(op string, err error, attrs ...any) {
	if err == nil || custom_errors.IsDenied(err) {
		return
	}
	a.logger.Error("Operation failed", append([]any{"op", op, "error", err}, attrs...)...)
}
