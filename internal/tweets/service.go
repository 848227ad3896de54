// internal/tweets/service.go
package tweets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"chapter-ingest/internal/database"
	custom_errors "chapter-ingest/internal/errors"
	"chapter-ingest/internal/model"
)

// Timeline is the remote source of posts.
type Timeline interface {
	LatestTweets(ctx context.Context, n int) ([]model.Tweet, error)
}

// maxMarkerSkew is how far ahead of the service clock a marker write may be.
const maxMarkerSkew = time.Minute

// Options holds the fetch policy.
type Options struct {
	Cooldown      time.Duration
	FetchAllCount int
	MarkerName    string
}

// Service ingests posts from the timeline into the store, at most once per cooldown window.
type Service struct {
	store    database.Store
	timeline Timeline
	logger   *slog.Logger
	opts     Options
	now      func() time.Time

	// fetching admits one in-process fetch at a time.
	fetching sync.Mutex
}

// FetchOutcome summarises a completed fetch.
type FetchOutcome struct {
	Requested int       `json:"requested"`
	Received  int       `json:"received"`
	Inserted  int       `json:"inserted"`
	FetchedAt time.Time `json:"fetched_at"`
}

func NewService(store database.Store, timeline Timeline, logger *slog.Logger, opts Options, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		timeline: timeline,
		logger:   logger,
		opts:     opts,
		now:      now,
	}
}

// Count returns the number of stored tweets.
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.store.CountTweets(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tweets: %w", err)
	}
	return n, nil
}

// List returns all stored tweets, newest first.
func (s *Service) List(ctx context.Context) ([]model.Tweet, error) {
	rows, err := s.store.ListTweets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}
	tweets := make([]model.Tweet, len(rows))
	for i, r := range rows {
		tweets[i] = toModelTweet(r)
	}
	return tweets, nil
}

// FetchLatest ingests the single most recent post.
func (s *Service) FetchLatest(ctx context.Context, lastFetchedAt *time.Time) (FetchOutcome, error) {
	return s.fetch(ctx, lastFetchedAt, 1)
}

// FetchAll ingests the configured number of most recent posts.
func (s *Service) FetchAll(ctx context.Context, lastFetchedAt *time.Time) (FetchOutcome, error) {
	return s.fetch(ctx, lastFetchedAt, s.opts.FetchAllCount)
}

// FetchedAt returns the marker value, or nil if it was never set.
func (s *Service) FetchedAt(ctx context.Context, name string) (*time.Time, error) {
	name, err := markerName(name)
	if err != nil {
		return nil, err
	}

	marker, err := s.store.GetFetchMarker(ctx, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fetch marker %s: %w", name, err)
	}
	return &marker.FetchedAt, nil
}

// UpdateFetchedAt advances the marker to ts and returns the stored value. The
// marker never moves backwards: if it already holds a later time, that time is returned.
// A zero ts means now. A ts more than maxMarkerSkew ahead of now is rejected, since a
// marker in the future would hold the cooldown closed until that date.
func (s *Service) UpdateFetchedAt(ctx context.Context, name string, ts time.Time) (time.Time, error) {
	name, err := markerName(name)
	if err != nil {
		return time.Time{}, err
	}

	now := s.now().UTC()
	if ts.IsZero() {
		ts = now
	}
	if ts.After(now.Add(maxMarkerSkew)) {
		return time.Time{}, &custom_errors.ValidationError{
			Field:  "fetched_at",
			Reason: fmt.Sprintf("%s is in the future", ts.UTC().Format(time.RFC3339)),
		}
	}
	return advanceMarker(ctx, s.store, name, ts)
}

// CheckCooldown returns a *CooldownError if a fetch at now is not yet allowed.
func (s *Service) CheckCooldown(lastFetchedAt *time.Time) error {
	if lastFetchedAt == nil || lastFetchedAt.IsZero() {
		return nil
	}
	retryAt := lastFetchedAt.Add(s.opts.Cooldown)
	if s.now().Before(retryAt) {
		return &custom_errors.CooldownError{LastFetchedAt: *lastFetchedAt, RetryAt: retryAt}
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, lastFetchedAt *time.Time, n int) (FetchOutcome, error) {
	if !s.fetching.TryLock() {
		return FetchOutcome{}, custom_errors.ErrFetchInProgress
	}
	defer s.fetching.Unlock()

	logger := s.logger.With("marker", s.opts.MarkerName, "count", n)

	stored, err := s.FetchedAt(ctx, s.opts.MarkerName)
	if err != nil {
		return FetchOutcome{}, err
	}
	if err := s.CheckCooldown(latest(lastFetchedAt, stored)); err != nil {
		logger.Info("Tweet fetch denied", "reason", err)
		return FetchOutcome{}, err
	}

	logger.Info("Fetching tweets")
	tweets, err := s.timeline.LatestTweets(ctx, n)
	if err != nil {
		logger.Error("Failed to fetch tweets", "error", err)
		return FetchOutcome{}, err
	}

	outcome := FetchOutcome{Requested: n, Received: len(tweets)}
	err = s.store.ExecTx(ctx, func(q database.Querier) error {
		for _, t := range tweets {
			inserted, err := q.InsertTweetIfAbsent(ctx, toInsertParams(t))
			if err != nil {
				return fmt.Errorf("insert tweet %s: %w", t.ID, err)
			}
			outcome.Inserted += int(inserted)
		}

		fetchedAt, err := advanceMarker(ctx, q, s.opts.MarkerName, s.now().UTC())
		outcome.FetchedAt = fetchedAt
		return err
	})
	if err != nil {
		logger.Error("Failed to store tweets", "error", err)
		return FetchOutcome{}, err
	}

	logger.Info("Tweets ingested", "received", outcome.Received, "inserted", outcome.Inserted, "fetched_at", outcome.FetchedAt)
	return outcome, nil
}

func advanceMarker(ctx context.Context, q database.Querier, name string, ts time.Time) (time.Time, error) {
	marker, err := q.AdvanceFetchMarker(ctx, database.AdvanceFetchMarkerParams{Name: name, FetchedAt: ts})
	if err == nil {
		return marker.FetchedAt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, fmt.Errorf("advance fetch marker %s: %w", name, err)
	}

	// Already at or past ts; report what is stored.
	marker, err = q.GetFetchMarker(ctx, name)
	if err != nil {
		return time.Time{}, fmt.Errorf("get fetch marker %s: %w", name, err)
	}
	return marker.FetchedAt, nil
}

func markerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &custom_errors.ValidationError{Field: "marker name", Reason: "must not be empty"}
	}
	return name, nil
}

func latest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}

func toInsertParams(t model.Tweet) database.InsertTweetIfAbsentParams {
	return database.InsertTweetIfAbsentParams{
		TweetID:         t.ID,
		Text:            t.Text,
		TweetCreatedAt:  t.CreatedAt,
		RetweetCount:    int64(t.Metrics.RetweetCount),
		ReplyCount:      int64(t.Metrics.ReplyCount),
		LikeCount:       int64(t.Metrics.LikeCount),
		QuoteCount:      int64(t.Metrics.QuoteCount),
		ConversationID:  toPgText(t.ConversationID),
		InReplyToUserID: toPgText(t.InReplyToUserID),
	}
}

func toModelTweet(r database.Tweet) model.Tweet {
	return model.Tweet{
		ID:        r.TweetID,
		Text:      r.Text,
		CreatedAt: r.TweetCreatedAt,
		Metrics: model.TweetMetrics{
			RetweetCount: int(r.RetweetCount),
			ReplyCount:   int(r.ReplyCount),
			LikeCount:    int(r.LikeCount),
			QuoteCount:   int(r.QuoteCount),
		},
		ConversationID:  fromPgText(r.ConversationID),
		InReplyToUserID: fromPgText(r.InReplyToUserID),
		FetchedAt:       r.FetchedAt,
	}
}

func toPgText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func fromPgText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}
