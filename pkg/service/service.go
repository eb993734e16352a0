// Package service wraps the per-resource repositories with domain-level
// conveniences: not-found handling, minimum search length, and
// cross-resource traversal (films a character appears in, residents of a
// planet, and so on).
//
// Traversals read the parent's relation URLs straight from the source,
// extract the trailing ids and resolve each one through the child
// service's GetByID. A failed parent fetch yields an empty list; a failed
// child is omitted from the result.
package service

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gusttavosants/StarWars/pkg/models"
	"github.com/gusttavosants/StarWars/pkg/repository"
)

// MinSearchLength is the shortest query forwarded to a repository.
const MinSearchLength = 2

// DefaultTraversalConcurrency bounds the per-traversal fan-out.
const DefaultTraversalConcurrency = 4

// Options tunes the service layer.
type Options struct {
	// TraversalConcurrency caps concurrent child lookups in one traversal
	TraversalConcurrency int
}

func (o Options) concurrency() int {
	if o.TraversalConcurrency <= 0 {
		return DefaultTraversalConcurrency
	}
	return o.TraversalConcurrency
}

// searchable reports whether query is long enough to reach a repository.
func searchable(query string) bool {
	return len([]rune(query)) >= MinSearchLength
}

// relationIDs fetches parentResource/parentID from source and returns the
// ids of the URLs listed under field, in source order.
func relationIDs(ctx context.Context, source repository.Source, parentResource, parentID, field string) ([]string, error) {
	raw, err := source.Get(ctx, source.ResourceURL(parentResource, parentID))
	if err != nil {
		return nil, err
	}

	var parent map[string]json.RawMessage
	if err := json.Unmarshal(raw, &parent); err != nil {
		return nil, err
	}

	var urls []string
	if rel, ok := parent[field]; ok && len(rel) > 0 {
		if err := json.Unmarshal(rel, &urls); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(urls))
	for _, u := range urls {
		if id, ok := models.IDFromURL(u); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// traverse resolves the relation parentResource/parentID.field into
// entities of repo's collection. Order follows the parent's URL list.
func traverse[T models.Entity](
	ctx context.Context,
	logger zerolog.Logger,
	repo *repository.Repository[T],
	limit int,
	parentResource, parentID, field string,
) []T {
	ids, err := relationIDs(ctx, repo.Source(), parentResource, parentID, field)
	if err != nil {
		logger.Error().Err(err).
			Str("parent", parentResource).
			Str("parent_id", parentID).
			Str("relation", field).
			Msg("Traversal parent fetch failed")
		return []T{}
	}

	slots := make([]*T, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			entity, err := repo.GetByID(gctx, id)
			if err != nil {
				logger.Warn().Err(err).
					Str("resource", repo.Resource()).
					Str("id", id).
					Msg("Traversal item skipped")
				return nil
			}
			slots[i] = &entity
			return nil
		})
	}
	_ = g.Wait()

	out := make([]T, 0, len(ids))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// byContains lists the collection filtered by a case-insensitive contains
// criterion on field.
func byContains[T models.Entity](ctx context.Context, repo *repository.Repository[T], field, value string) []T {
	q := repository.DefaultQuery()
	q.Filters = repository.Filters{field: repository.Contains(value)}
	items, _ := repo.GetAll(ctx, q)
	return items
}
