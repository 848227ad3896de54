// internal/database/querier.go
package database

import (
	"context"
	"time"
)

type Querier interface {
	AdvanceFetchMarker(ctx context.Context, arg AdvanceFetchMarkerParams) (FetchMarker, error)
	CountTweets(ctx context.Context) (int64, error)
	DeletePublishedProjects(ctx context.Context, repoIds []string) (int64, error)
	GetFetchMarker(ctx context.Context, name string) (FetchMarker, error)
	GetTweet(ctx context.Context, tweetID string) (Tweet, error)
	InsertPublishedProject(ctx context.Context, arg InsertPublishedProjectParams) (int64, error)
	InsertTweetIfAbsent(ctx context.Context, arg InsertTweetIfAbsentParams) (int64, error)
	ListPublishedProjects(ctx context.Context) ([]PublishedProject, error)
	ListTweets(ctx context.Context) ([]Tweet, error)
}

var _ Querier = (*Queries)(nil)

type AdvanceFetchMarkerParams struct {
	Name      string
	FetchedAt time.Time
}

type InsertPublishedProjectParams struct {
	RepoID   string
	RepoName string
}
