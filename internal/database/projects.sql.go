// internal/database/projects.sql.go
package database

import (
	"context"
)

const deletePublishedProjects = `
DELETE FROM published_projects
WHERE repo_id = ANY($1::text[])
`

func (q *Queries) DeletePublishedProjects(ctx context.Context, repoIds []string) (int64, error) {
	result, err := q.db.Exec(ctx, deletePublishedProjects, repoIds)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertPublishedProject = `
INSERT INTO published_projects (repo_id, repo_name)
VALUES ($1, $2)
ON CONFLICT (repo_id) DO NOTHING
`

// InsertPublishedProject returns 0 when the repository was already published.
func (q *Queries) InsertPublishedProject(ctx context.Context, arg InsertPublishedProjectParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertPublishedProject, arg.RepoID, arg.RepoName)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listPublishedProjects = `
SELECT repo_id, repo_name, published_at
FROM published_projects
ORDER BY published_at DESC, repo_id
`

func (q *Queries) ListPublishedProjects(ctx context.Context) ([]PublishedProject, error) {
	rows, err := q.db.Query(ctx, listPublishedProjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PublishedProject{}
	for rows.Next() {
		var i PublishedProject
		if err := rows.Scan(&i.RepoID, &i.RepoName, &i.PublishedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
