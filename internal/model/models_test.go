// internal/model/models_test.go
package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteRepository_ContributorsJSON(t *testing.T) {
	t.Run("not enriched is null", func(t *testing.T) {
		body, err := json.Marshal(RemoteRepository{ID: 1, Name: "website"})
		require.NoError(t, err)
		assert.Contains(t, string(body), `"contributors":null`)
	})

	t.Run("enriched without contributors is an empty list", func(t *testing.T) {
		body, err := json.Marshal(RemoteRepository{ID: 1, Name: "website", Contributors: []Contributor{}})
		require.NoError(t, err)
		assert.Contains(t, string(body), `"contributors":[]`)
	})
}

func TestTweet_FetchedAtJSON(t *testing.T) {
	body, err := json.Marshal(Tweet{ID: "42", Text: "hello"})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "fetched_at")

	fetched := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	body, err = json.Marshal(Tweet{ID: "42", Text: "hello", FetchedAt: fetched})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"fetched_at":"2026-03-10T12:00:00Z"`)
}
