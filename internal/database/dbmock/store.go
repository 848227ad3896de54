// internal/database/dbmock/store.go

// Package dbmock provides a testify mock of database.Store.
package dbmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chapter-ingest/internal/database"
)

// MockStore is a mock of the database.Store interface. ExecTx runs the callback
// against the mock itself, so expectations apply inside transactions too.
type MockStore struct {
	mock.Mock
}

var _ database.Store = (*MockStore)(nil)

func (m *MockStore) ExecTx(ctx context.Context, fn func(database.Querier) error) error {
	m.Called(ctx)
	return fn(m)
}

func (m *MockStore) AdvanceFetchMarker(ctx context.Context, arg database.AdvanceFetchMarkerParams) (database.FetchMarker, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.FetchMarker), args.Error(1)
}
func (m *MockStore) CountTweets(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStore) DeletePublishedProjects(ctx context.Context, repoIds []string) (int64, error) {
	args := m.Called(ctx, repoIds)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStore) GetFetchMarker(ctx context.Context, name string) (database.FetchMarker, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(database.FetchMarker), args.Error(1)
}
func (m *MockStore) GetTweet(ctx context.Context, tweetID string) (database.Tweet, error) {
	args := m.Called(ctx, tweetID)
	return args.Get(0).(database.Tweet), args.Error(1)
}
func (m *MockStore) InsertPublishedProject(ctx context.Context, arg database.InsertPublishedProjectParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStore) InsertTweetIfAbsent(ctx context.Context, arg database.InsertTweetIfAbsentParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStore) ListPublishedProjects(ctx context.Context) ([]database.PublishedProject, error) {
	args := m.Called(ctx)
	return args.Get(0).([]database.PublishedProject), args.Error(1)
}
func (m *MockStore) ListTweets(ctx context.Context) ([]database.Tweet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]database.Tweet), args.Error(1)
}
