// internal/projects/publisher.go
package projects

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chapter-ingest/internal/database"
	custom_errors "chapter-ingest/internal/errors"
	"chapter-ingest/internal/model"
)

// Publisher maintains the set of repositories featured on the public site.
// The published_projects table is the source of truth for selection state.
type Publisher struct {
	store  database.Store
	logger *slog.Logger
}

// ReconcileResult reports what a Reconcile call changed.
type ReconcileResult struct {
	Published   []string `json:"published"`
	Unpublished []string `json:"unpublished"`
}

func NewPublisher(store database.Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Published returns every published repository, most recently published first.
func (p *Publisher) Published(ctx context.Context) ([]model.PublishedProject, error) {
	rows, err := p.store.ListPublishedProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published projects: %w", err)
	}

	projects := make([]model.PublishedProject, len(rows))
	for i, r := range rows {
		projects[i] = model.PublishedProject{RepoID: r.RepoID, RepoName: r.RepoName, PublishedAt: r.PublishedAt}
	}
	return projects, nil
}

// Publish marks the selected repositories as published. Repositories that are
// already published are left untouched. It returns the number of new records.
func (p *Publisher) Publish(ctx context.Context, selected []model.RepoSelection) (int, error) {
	selected, err := normalize(selected)
	if err != nil {
		return 0, err
	}
	if len(selected) == 0 {
		return 0, nil
	}

	var inserted int
	err = p.store.ExecTx(ctx, func(q database.Querier) error {
		n, err := publish(ctx, q, selected)
		inserted = n
		return err
	})
	if err != nil {
		return 0, err
	}

	p.logger.Info("Published repositories", "requested", len(selected), "inserted", inserted)
	return inserted, nil
}

// Unpublish removes the given repository ids from the published set. Ids that
// are not published are ignored. It returns the number of removed records.
func (p *Publisher) Unpublish(ctx context.Context, ids []string) (int, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := p.store.DeletePublishedProjects(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("unpublish projects: %w", err)
	}

	p.logger.Info("Unpublished repositories", "requested", len(ids), "deleted", n)
	return int(n), nil
}

// Reconcile makes the published set equal to checked by diff: removed ids are
// unpublished and newly checked ones published, in a single transaction.
func (p *Publisher) Reconcile(ctx context.Context, checked []model.RepoSelection) (ReconcileResult, error) {
	checked, err := normalize(checked)
	if err != nil {
		return ReconcileResult{}, err
	}

	result := ReconcileResult{Published: []string{}, Unpublished: []string{}}
	err = p.store.ExecTx(ctx, func(q database.Querier) error {
		current, err := q.ListPublishedProjects(ctx)
		if err != nil {
			return fmt.Errorf("list published projects: %w", err)
		}

		toPublish, toUnpublish := diff(current, checked)
		if len(toUnpublish) > 0 {
			if _, err := q.DeletePublishedProjects(ctx, toUnpublish); err != nil {
				return fmt.Errorf("unpublish projects: %w", err)
			}
			result.Unpublished = toUnpublish
		}
		if _, err := publish(ctx, q, toPublish); err != nil {
			return err
		}
		for _, s := range toPublish {
			result.Published = append(result.Published, s.ID)
		}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	p.logger.Info("Reconciled published repositories", "published", len(result.Published), "unpublished", len(result.Unpublished))
	return result, nil
}

func publish(ctx context.Context, q database.Querier, selected []model.RepoSelection) (int, error) {
	var inserted int
	for _, s := range selected {
		n, err := q.InsertPublishedProject(ctx, database.InsertPublishedProjectParams{
			RepoID:   s.ID,
			RepoName: s.Name,
		})
		if err != nil {
			return 0, fmt.Errorf("publish project %s: %w", s.ID, err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// diff returns the selections missing from current and the current ids missing from checked.
func diff(current []database.PublishedProject, checked []model.RepoSelection) ([]model.RepoSelection, []string) {
	published := make(map[string]bool, len(current))
	for _, c := range current {
		published[c.RepoID] = true
	}
	wanted := make(map[string]bool, len(checked))

	var toPublish []model.RepoSelection
	for _, s := range checked {
		wanted[s.ID] = true
		if !published[s.ID] {
			toPublish = append(toPublish, s)
		}
	}

	var toUnpublish []string
	for _, c := range current {
		if !wanted[c.RepoID] {
			toUnpublish = append(toUnpublish, c.RepoID)
		}
	}
	return toPublish, toUnpublish
}

// normalize trims ids, rejects empty ones and drops duplicates keeping the first occurrence.
func normalize(selected []model.RepoSelection) ([]model.RepoSelection, error) {
	seen := make(map[string]bool, len(selected))
	out := make([]model.RepoSelection, 0, len(selected))
	for _, s := range selected {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			return nil, &custom_errors.ValidationError{Field: "repository id", Reason: "must not be empty"}
		}
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
