// internal/database/markers.sql.go
package database

import (
	"context"
)

const advanceFetchMarker = `
INSERT INTO fetch_markers (name, fetched_at)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET fetched_at = EXCLUDED.fetched_at
WHERE fetch_markers.fetched_at < EXCLUDED.fetched_at
RETURNING name, fetched_at
`

// AdvanceFetchMarker moves the marker forward only. It returns pgx.ErrNoRows when the
// stored value is already at or after arg.FetchedAt.
func (q *Queries) AdvanceFetchMarker(ctx context.Context, arg AdvanceFetchMarkerParams) (FetchMarker, error) {
	row := q.db.QueryRow(ctx, advanceFetchMarker, arg.Name, arg.FetchedAt)
	var i FetchMarker
	err := row.Scan(&i.Name, &i.FetchedAt)
	return i, err
}

const getFetchMarker = `
SELECT name, fetched_at
FROM fetch_markers
WHERE name = $1
`

func (q *Queries) GetFetchMarker(ctx context.Context, name string) (FetchMarker, error) {
	row := q.db.QueryRow(ctx, getFetchMarker, name)
	var i FetchMarker
	err := row.Scan(&i.Name, &i.FetchedAt)
	return i, err
}
