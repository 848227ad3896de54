// internal/twitter/client.go

// Package twitter reads the chapter's recent posts from the X API v2.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	xapi "github.com/g8rswimmer/go-twitter/v2"
	"golang.org/x/oauth2"

	custom_errors "chapter-ingest/internal/errors"
	"chapter-ingest/internal/model"
)

const (
	// The timeline endpoint rejects max_results outside [5, 100].
	minPageSize = 5
	maxPageSize = 100
)

var tweetFields = []xapi.TweetField{
	xapi.TweetFieldCreatedAt,
	xapi.TweetFieldPublicMetrics,
	xapi.TweetFieldConversationID,
	xapi.TweetFieldInReplyToUserID,
}

// Client is a wrapper around the go-twitter v2 client for one tracked account.
type Client struct {
	x      *xapi.Client
	logger *slog.Logger

	mu       sync.Mutex
	userID   string
	username string
}

// transportAuth satisfies xapi.Authorizer; the oauth2 transport sets the
// Authorization header.
type transportAuth struct{}

func (transportAuth) Add(*http.Request) {}

// NewClient creates a Client authenticated with an app-only bearer token.
// Either userID or username must be set; a username is resolved to an id on first use.
func NewClient(bearerToken, baseURL, userID, username string, logger *slog.Logger) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: bearerToken, TokenType: "Bearer"},
	)
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = 30 * time.Second

	return NewClientWithHTTPClient(httpClient, baseURL, userID, username, logger)
}

// NewClientWithHTTPClient builds a Client on top of an existing http.Client.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, userID, username string, logger *slog.Logger) *Client {
	return &Client{
		x: &xapi.Client{
			Authorizer: transportAuth{},
			Client:     httpClient,
			Host:       strings.TrimRight(baseURL, "/"),
		},
		logger:   logger,
		userID:   userID,
		username: username,
	}
}

// LatestTweets returns up to n of the account's most recent posts, newest first.
func (c *Client) LatestTweets(ctx context.Context, n int) ([]model.Tweet, error) {
	if n < 1 || n > maxPageSize {
		return nil, &custom_errors.ValidationError{Field: "count", Reason: fmt.Sprintf("must be between 1 and %d, got %d", maxPageSize, n)}
	}

	userID, err := c.resolveUserID(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := "/2/users/" + userID + "/tweets"
	resp, err := c.x.UserTweetTimeline(ctx, userID, xapi.UserTweetTimelineOpts{
		TweetFields: tweetFields,
		MaxResults:  max(n, minPageSize),
	})
	if err != nil {
		return nil, remoteError(endpoint, err)
	}
	c.logRateLimit(endpoint, resp.RateLimit)

	var raw []*xapi.TweetObj
	if resp.Raw != nil {
		raw = resp.Raw.Tweets
	}
	if resp.Meta != nil {
		c.logger.Debug("Fetched timeline", "user_id", userID, "requested", n, "result_count", resp.Meta.ResultCount, "newest_id", resp.Meta.NewestID)
	}

	tweets := make([]model.Tweet, 0, min(n, len(raw)))
	for _, t := range raw {
		if len(tweets) == n {
			break
		}
		if t == nil || t.ID == "" {
			return nil, &custom_errors.RemoteAPIError{Service: "x", Endpoint: endpoint, Err: errors.New("tweet without id in response")}
		}
		tweet, err := toInternalTweet(t)
		if err != nil {
			return nil, &custom_errors.RemoteAPIError{Service: "x", Endpoint: endpoint, Err: err}
		}
		tweets = append(tweets, tweet)
	}
	return tweets, nil
}

func (c *Client) resolveUserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID != "" {
		return c.userID, nil
	}

	endpoint := "/2/users/by/username/" + c.username
	resp, err := c.x.UserNameLookup(ctx, []string{c.username}, xapi.UserLookupOpts{})
	if err != nil {
		return "", remoteError(endpoint, err)
	}
	c.logRateLimit(endpoint, resp.RateLimit)

	if resp.Raw == nil || len(resp.Raw.Users) == 0 || resp.Raw.Users[0] == nil || resp.Raw.Users[0].ID == "" {
		return "", &custom_errors.RemoteAPIError{Service: "x", Endpoint: endpoint, Err: fmt.Errorf("user %q not found", c.username)}
	}

	id := resp.Raw.Users[0].ID
	c.logger.Info("Resolved X account", "username", c.username, "user_id", id)
	c.userID = id
	return c.userID, nil
}

func (c *Client) logRateLimit(endpoint string, rl *xapi.RateLimit) {
	if rl == nil {
		return
	}
	c.logger.Debug("X API call", "endpoint", endpoint, "rate_remaining", rl.Remaining, "rate_limit", rl.Limit)
}

// remoteError converts a go-twitter failure into a RemoteAPIError.
func remoteError(endpoint string, err error) error {
	remote := &custom_errors.RemoteAPIError{Service: "x", Endpoint: endpoint, Err: err}

	var errResp *xapi.ErrorResponse
	var httpErr *xapi.HTTPError
	switch {
	case errors.As(err, &errResp):
		remote.StatusCode = errResp.StatusCode
		remote.ResetAt = resetAt(errResp.RateLimit)
	case errors.As(err, &httpErr):
		remote.StatusCode = httpErr.StatusCode
		remote.ResetAt = resetAt(httpErr.RateLimit)
	}
	return remote
}

func resetAt(rl *xapi.RateLimit) *time.Time {
	if rl == nil || rl.Reset == 0 {
		return nil
	}
	reset := time.Unix(int64(rl.Reset), 0).UTC()
	return &reset
}

// toInternalTweet translates a go-twitter TweetObj to our internal model.
func toInternalTweet(t *xapi.TweetObj) (model.Tweet, error) {
	created, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return model.Tweet{}, fmt.Errorf("tweet %s created_at: %w", t.ID, err)
	}

	tweet := model.Tweet{
		ID:        t.ID,
		Text:      t.Text,
		CreatedAt: created,
	}
	if m := t.PublicMetrics; m != nil {
		tweet.Metrics = model.TweetMetrics{
			RetweetCount: m.Retweets,
			ReplyCount:   m.Replies,
			LikeCount:    m.Likes,
			QuoteCount:   m.Quotes,
		}
	}
	if t.ConversationID != "" {
		id := t.ConversationID
		tweet.ConversationID = &id
	}
	if t.InReplyToUserID != "" {
		id := t.InReplyToUserID
		tweet.InReplyToUserID = &id
	}
	return tweet, nil
}
