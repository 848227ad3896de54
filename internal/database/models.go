// internal/database/models.go
package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type PublishedProject struct {
	RepoID      string
	RepoName    string
	PublishedAt time.Time
}

type Tweet struct {
	TweetID         string
	Text            string
	TweetCreatedAt  time.Time
	RetweetCount    int64
	ReplyCount      int64
	LikeCount       int64
	QuoteCount      int64
	ConversationID  pgtype.Text
	InReplyToUserID pgtype.Text
	FetchedAt       time.Time
}

type FetchMarker struct {
	Name      string
	FetchedAt time.Time
}
