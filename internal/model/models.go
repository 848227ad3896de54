// internal/model/models.go
package model

import "time"

// RemoteRepository is a snapshot of an organization repository as returned by GitHub.
// It is never stored locally; only its ID is kept as a publish reference.
// Contributors is nil when enrichment was not requested and empty when it found none or failed.
type RemoteRepository struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	FullName     string        `json:"full_name"`
	Description  *string       `json:"description"`
	URL          string        `json:"html_url"`
	ForksCount   int           `json:"forks_count"`
	CreatedAt    time.Time     `json:"created_at"`
	PushedAt     time.Time     `json:"pushed_at"`
	Contributors []Contributor `json:"contributors"`
}

// Contributor is a GitHub user who contributed to a repository.
type Contributor struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	Contributions int    `json:"contributions"`
}

// RepoSelection identifies a repository picked for publishing.
type RepoSelection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublishedProject is a repository marked as featured on the public site.
type PublishedProject struct {
	RepoID      string    `json:"repo_id"`
	RepoName    string    `json:"repo_name"`
	PublishedAt time.Time `json:"published_at"`
}

type TweetMetrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

// Tweet is a post ingested from the chapter's X account. Stored tweets are never mutated.
type Tweet struct {
	ID              string       `json:"id"`
	Text            string       `json:"text"`
	CreatedAt       time.Time    `json:"created_at"`
	Metrics         TweetMetrics `json:"public_metrics"`
	ConversationID  *string      `json:"conversation_id,omitempty"`
	InReplyToUserID *string      `json:"in_reply_to_user_id,omitempty"`
	FetchedAt       time.Time    `json:"fetched_at,omitzero"`
}

// FetchMarker records when a rate-limited remote fetch last succeeded.
type FetchMarker struct {
	Name      string    `json:"name"`
	FetchedAt time.Time `json:"fetched_at"`
}
