package repository

import (
	"context"
	"sort"

	"github.com/goccy/go-json"

	"github.com/gusttavosants/StarWars/pkg/cache"
)

// PageSource fetches every page of a collection.
type PageSource interface {
	FetchAllPages(ctx context.Context, endpoint string) (map[int][]byte, error)
}

// Warm walks every upstream page of the collection and stores each item
// under its by-id key. Items whose page failed, or that do not decode,
// are skipped. It returns the number of items stored.
func (r *Repository[T]) Warm(ctx context.Context, pages PageSource) (int, error) {
	if !r.opts.CacheEnabled {
		return 0, nil
	}

	fetched, fetchErr := pages.FetchAllPages(ctx, r.resource+"/")

	pageNums := make([]int, 0, len(fetched))
	for n := range fetched {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)

	stored := 0
	for _, n := range pageNums {
		var payload collectionPayload
		if err := json.Unmarshal(fetched[n], &payload); err != nil {
			r.logger.Warn().Err(err).Int("page", n).Msg("Warm page undecodable")
			continue
		}
		for _, raw := range payload.Results {
			entity, err := decode[T](raw)
			if err != nil {
				continue
			}
			id, ok := entity.GetID()
			if !ok {
				continue
			}
			r.cacheSet(ctx, cache.NewKey(r.resource, cache.OpByID, id).String(), raw)
			stored++
		}
	}

	r.logger.Info().Int("items", stored).Int("pages", len(fetched)).Msg("Cache warmed")
	return stored, fetchErr
}
