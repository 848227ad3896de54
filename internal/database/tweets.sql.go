// internal/database/tweets.sql.go
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const countTweets = `
SELECT COUNT(*) FROM tweets
`

func (q *Queries) CountTweets(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countTweets)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getTweet = `
SELECT tweet_id, text, tweet_created_at, retweet_count, reply_count, like_count, quote_count,
       conversation_id, in_reply_to_user_id, fetched_at
FROM tweets
WHERE tweet_id = $1
`

func (q *Queries) GetTweet(ctx context.Context, tweetID string) (Tweet, error) {
	row := q.db.QueryRow(ctx, getTweet, tweetID)
	var i Tweet
	err := row.Scan(
		&i.TweetID,
		&i.Text,
		&i.TweetCreatedAt,
		&i.RetweetCount,
		&i.ReplyCount,
		&i.LikeCount,
		&i.QuoteCount,
		&i.ConversationID,
		&i.InReplyToUserID,
		&i.FetchedAt,
	)
	return i, err
}

const insertTweetIfAbsent = `
INSERT INTO tweets (
    tweet_id, text, tweet_created_at, retweet_count, reply_count, like_count, quote_count,
    conversation_id, in_reply_to_user_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (tweet_id) DO NOTHING
`

type InsertTweetIfAbsentParams struct {
	TweetID         string
	Text            string
	TweetCreatedAt  time.Time
	RetweetCount    int64
	ReplyCount      int64
	LikeCount       int64
	QuoteCount      int64
	ConversationID  pgtype.Text
	InReplyToUserID pgtype.Text
}

// InsertTweetIfAbsent returns 0 when the tweet is already stored; the stored row is left as is.
func (q *Queries) InsertTweetIfAbsent(ctx context.Context, arg InsertTweetIfAbsentParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertTweetIfAbsent,
		arg.TweetID,
		arg.Text,
		arg.TweetCreatedAt,
		arg.RetweetCount,
		arg.ReplyCount,
		arg.LikeCount,
		arg.QuoteCount,
		arg.ConversationID,
		arg.InReplyToUserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listTweets = `
SELECT tweet_id, text, tweet_created_at, retweet_count, reply_count, like_count, quote_count,
       conversation_id, in_reply_to_user_id, fetched_at
FROM tweets
ORDER BY tweet_created_at DESC, tweet_id DESC
`

func (q *Queries) ListTweets(ctx context.Context) ([]Tweet, error) {
	rows, err := q.db.Query(ctx, listTweets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Tweet{}
	for rows.Next() {
		var i Tweet
		if err := rows.Scan(
			&i.TweetID,
			&i.Text,
			&i.TweetCreatedAt,
			&i.RetweetCount,
			&i.ReplyCount,
			&i.LikeCount,
			&i.QuoteCount,
			&i.ConversationID,
			&i.InReplyToUserID,
			&i.FetchedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
