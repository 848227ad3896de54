// internal/projects/publisher_test.go
package projects

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chapter-ingest/internal/database"
	"chapter-ingest/internal/database/dbmock"
	custom_errors "chapter-ingest/internal/errors"
	"chapter-ingest/internal/model"
)

func newTestPublisher() (*Publisher, *dbmock.MockStore) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := new(dbmock.MockStore)
	return NewPublisher(store, logger), store
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts each selection in one transaction", func(t *testing.T) {
		p, store := newTestPublisher()
		store.On("ExecTx", ctx).Return().Once()
		store.On("InsertPublishedProject", ctx, database.InsertPublishedProjectParams{RepoID: "1", RepoName: "site"}).Return(int64(1), nil).Once()
		store.On("InsertPublishedProject", ctx, database.InsertPublishedProjectParams{RepoID: "2", RepoName: "bot"}).Return(int64(1), nil).Once()

		n, err := p.Publish(ctx, []model.RepoSelection{{ID: "1", Name: "site"}, {ID: "2", Name: "bot"}})

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		store.AssertExpectations(t)
	})

	t.Run("already published repository is a no-op", func(t *testing.T) {
		p, store := newTestPublisher()
		store.On("ExecTx", ctx).Return()
		// The first call inserts, the second hits ON CONFLICT DO NOTHING.
		store.On("InsertPublishedProject", ctx, database.InsertPublishedProjectParams{RepoID: "1", RepoName: "x"}).Return(int64(1), nil).Once()
		store.On("InsertPublishedProject", ctx, database.InsertPublishedProjectParams{RepoID: "1", RepoName: "x"}).Return(int64(0), nil).Once()

		first, err := p.Publish(ctx, []model.RepoSelection{{ID: "1", Name: "x"}})
		require.NoError(t, err)
		second, err := p.Publish(ctx, []model.RepoSelection{{ID: "1", Name: "x"}})
		require.NoError(t, err)

		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)
		store.AssertExpectations(t)
	})

	t.Run("duplicate ids in one call are collapsed", func(t *testing.T) {
		p, store := newTestPublisher()
		store.On("ExecTx", ctx).Return().Once()
		store.On("InsertPublishedProject", ctx, database.InsertPublishedProjectParams{RepoID: "7", RepoName: "first"}).Return(int64(1), nil).Once()

		n, err := p.Publish(ctx, []model.RepoSelection{{ID: "7", Name: "first"}, {ID: " 7 ", Name: "second"}})

		require.NoError(t, err)
		assert.Equal(t, 1, n)
		store.AssertExpectations(t)
	})

	t.Run("empty id is rejected before touching the store", func(t *testing.T) {
		p, store := newTestPublisher()

		_, err := p.Publish(ctx, []model.RepoSelection{{ID: "", Name: "x"}})

		var validation *custom_errors.ValidationError
		assert.ErrorAs(t, err, &validation)
		store.AssertNotCalled(t, "ExecTx", mock.Anything)
	})

	t.Run("empty selection does nothing", func(t *testing.T) {
		p, store := newTestPublisher()

		n, err := p.Publish(ctx, nil)

		require.NoError(t, err)
		assert.Zero(t, n)
		store.AssertNotCalled(t, "ExecTx", mock.Anything)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		p, store := newTestPublisher()
		dbError := errors.New("connection reset")
		store.On("ExecTx", ctx).Return().Once()
		store.On("InsertPublishedProject", ctx, mock.Anything).Return(int64(0), dbError).Once()

		_, err := p.Publish(ctx, []model.RepoSelection{{ID: "1", Name: "x"}})

		assert.ErrorIs(t, err, dbError)
		store.AssertExpectations(t)
	})
}

func TestPublisher_Unpublish(t *testing.T) {
	ctx := context.Background()

	t.Run("missing ids are a silent no-op", func(t *testing.T) {
		p, store := newTestPublisher()
		store.On("DeletePublishedProjects", ctx, []string{"1"}).Return(int64(0), nil).Once()

		n, err := p.Unpublish(ctx, []string{"1"})

		require.NoError(t, err)
		assert.Zero(t, n)
		store.AssertExpectations(t)
	})

	t.Run("deletes deduplicated ids", func(t *testing.T) {
		p, store := newTestPublisher()
		store.On("DeletePublishedProjects", ctx, []string{"1", "2"}).Return(int64(2), nil).Once()

		n, err := p.Unpublish(ctx, []string{"1", "2", "1", ""})

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		store.AssertExpectations(t)
	})

	t.Run("empty list skips the store", func(t *testing.T) {
		p, store := newTestPublisher()

		n, err := p.Unpublish(ctx, []string{})

		require.NoError(t, err)
		assert.Zero(t, n)
		store.AssertNotCalled(t, "DeletePublishedProjects", mock.Anything, mock.Anything)
	})
}

func TestPublisher_Published(t *testing.T) {
	ctx := context.Background()
	p, store := newTestPublisher()
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store.On("ListPublishedProjects", ctx).Return([]database.PublishedProject{
		{RepoID: "2", RepoName: "bot", PublishedAt: at},
		{RepoID: "1", RepoName: "site", PublishedAt: at.Add(-time.Hour)},
	}, nil).Once()

	got, err := p.Published(ctx)

	require.NoError(t, err)
	assert.Equal(t, []model.PublishedProject{
		{RepoID: "2", RepoName: "bot", PublishedAt: at},
		{RepoID: "1", RepoName: "site", PublishedAt: at.Add(-time.Hour)},
	}, got)
}

func TestPublisher_Reconcile(t *testing.T) {
	ctx := context.Background()
	p, store := newTestPublisher()

	store.On("ExecTx", ctx).Return().Once()
	store.On("ListPublishedProjects", ctx).Return([]database.PublishedProject{
		{RepoID: "1", RepoName: "keep"},
		{RepoID: "2", RepoName: "drop"},
	}, nil).Once()
	store.On("DeletePublishedProjects", ctx, []string{"2"}).Return(int64(1), nil).Once()
	store.On("InsertPublishedProject", ctx, database.InsertPublishedProjectParams{RepoID: "3", RepoName: "new"}).Return(int64(1), nil).Once()

	got, err := p.Reconcile(ctx, []model.RepoSelection{{ID: "1", Name: "keep"}, {ID: "3", Name: "new"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, got.Published)
	assert.Equal(t, []string{"2"}, got.Unpublished)
	store.AssertExpectations(t)
	// "1" stays published without being rewritten.
	store.AssertNotCalled(t, "InsertPublishedProject", ctx, database.InsertPublishedProjectParams{RepoID: "1", RepoName: "keep"})
}

func TestDiff(t *testing.T) {
	current := []database.PublishedProject{{RepoID: "a"}, {RepoID: "b"}}

	toPublish, toUnpublish := diff(current, []model.RepoSelection{{ID: "b"}, {ID: "c"}})
	assert.Equal(t, []model.RepoSelection{{ID: "c"}}, toPublish)
	assert.Equal(t, []string{"a"}, toUnpublish)

	toPublish, toUnpublish = diff(current, nil)
	assert.Empty(t, toPublish)
	assert.Equal(t, []string{"a", "b"}, toUnpublish)
}
