// Package repository implements cache-first access to SWAPI collections.
//
// Repository[T] serves one collection (people, films, planets, starships)
// for one entity type. Reads go to the cache first; on a miss the payload
// is fetched from SWAPI, stored with the configured TTL and decoded.
// Filtering and sorting run in process over the fetched batch.
//
// GetByID reports failures as not found. GetAll, Search and Count never
// fail: any error is logged and an empty or zero result is returned.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/cache"
	"github.com/gusttavosants/StarWars/pkg/client"
	"github.com/gusttavosants/StarWars/pkg/logging"
	"github.com/gusttavosants/StarWars/pkg/models"
)

// DefaultTTL is used when Options.TTL is not set.
const DefaultTTL = 300 * time.Second

// Source is the upstream capability a repository reads from.
type Source interface {
	Get(ctx context.Context, url string, opts ...client.RequestOption) (json.RawMessage, error)
	ResourceURL(segments ...string) string
}

// Options tunes caching for a repository.
type Options struct {
	// CacheEnabled turns cache reads and writes on
	CacheEnabled bool

	// TTL applied to every cache write
	TTL time.Duration
}

// Repository provides GetByID, GetAll, Search and Count for one collection.
type Repository[T models.Entity] struct {
	resource string
	fields   models.FieldTable[T]
	source   Source
	cache    cache.Cache
	opts     Options
	logger   zerolog.Logger
}

// New creates a repository for resource. A nil cache disables caching.
func New[T models.Entity](resource string, fields models.FieldTable[T], source Source, c cache.Cache, opts Options) *Repository[T] {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if c == nil {
		opts.CacheEnabled = false
	}
	return &Repository[T]{
		resource: resource,
		fields:   fields,
		source:   source,
		cache:    c,
		opts:     opts,
		logger:   logging.NewLogger("repository").With().Str("resource", resource).Logger(),
	}
}

// Resource returns the SWAPI collection name.
func (r *Repository[T]) Resource() string { return r.resource }

// Fields returns the field table used for filtering and sorting.
func (r *Repository[T]) Fields() models.FieldTable[T] { return r.fields }

// Source returns the upstream the repository reads from.
func (r *Repository[T]) Source() Source { return r.source }

// ResourceURL returns the canonical URL of item id in this collection.
func (r *Repository[T]) ResourceURL(id string) string {
	return r.source.ResourceURL(r.resource, id)
}

// collectionPayload is the SWAPI list envelope.
type collectionPayload struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

// cachedCollection is what GetAll stores: the filtered and sorted batch
// plus the total reported by the source.
type cachedCollection struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
}

// GetByID returns the entity with id. Any fetch or decode failure is
// reported as apperr not found.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	key := cache.NewKey(r.resource, cache.OpByID, id).String()

	if raw, ok := r.cacheGet(ctx, key); ok {
		entity, err := decode[T](raw)
		if err != nil {
			r.logger.Error().Err(err).Str("key", key).Msg("Decode cached payload failed")
			return zero, notFound(r.resource, id, err)
		}
		return entity, nil
	}

	raw, err := r.source.Get(ctx, r.ResourceURL(id))
	if err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("Fetch by id failed")
		return zero, notFound(r.resource, id, err)
	}

	entity, err := decode[T](raw)
	if err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("Decode by id failed")
		return zero, notFound(r.resource, id, err)
	}

	r.cacheSet(ctx, key, raw)
	return entity, nil
}

// GetAll returns the first source page, sorted then filtered, and the
// total reported by the source. Page and PageSize only shape the cache
// key; they are not forwarded upstream. Failures yield (empty, 0).
func (r *Repository[T]) GetAll(ctx context.Context, q Query) ([]T, int) {
	key := cache.NewKey(r.resource, cache.OpAll, q.Page, q.PageSize, q.Filters, q.SortBy, string(q.SortOrder)).String()

	items, total, err := r.getAll(ctx, key, q)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("GetAll degraded to empty result")
		return []T{}, 0
	}
	return items, total
}

func (r *Repository[T]) getAll(ctx context.Context, key string, q Query) ([]T, int, error) {
	if raw, ok := r.cacheGet(ctx, key); ok {
		var cached cachedCollection
		if err := json.Unmarshal(raw, &cached); err != nil {
			return nil, 0, fmt.Errorf("decode cached collection: %w", err)
		}
		items, err := decodeAll[T](cached.Items)
		if err != nil {
			return nil, 0, err
		}
		return items, cached.Total, nil
	}

	payload, err := r.fetchCollection(ctx)
	if err != nil {
		return nil, 0, err
	}

	items, err := decodeAll[T](payload.Results)
	if err != nil {
		return nil, 0, err
	}

	if q.SortBy != "" {
		if items, err = sortEntities(items, q.SortBy, q.SortOrder); err != nil {
			return nil, 0, err
		}
	}
	if len(q.Filters) > 0 {
		if items, err = filterEntities(items, q.Filters); err != nil {
			return nil, 0, err
		}
	}

	r.cacheCollection(ctx, key, items, payload.Count)
	return items, payload.Count, nil
}

// Search forwards query to the source search endpoint. Failures yield an
// empty list.
func (r *Repository[T]) Search(ctx context.Context, query string) []T {
	key := cache.NewKey(r.resource, cache.OpSearch, query).String()

	items, err := r.search(ctx, key, query)
	if err != nil {
		r.logger.Warn().Err(err).Str("query", query).Msg("Search degraded to empty result")
		return []T{}
	}
	return items
}

func (r *Repository[T]) search(ctx context.Context, key, query string) ([]T, error) {
	if raw, ok := r.cacheGet(ctx, key); ok {
		var results []json.RawMessage
		if err := json.Unmarshal(raw, &results); err != nil {
			return nil, fmt.Errorf("decode cached search: %w", err)
		}
		return decodeAll[T](results)
	}

	body, err := r.source.Get(ctx, r.source.ResourceURL(r.resource), client.WithQuery("search", query))
	if err != nil {
		return nil, err
	}
	var payload collectionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search payload: %w", err)
	}

	items, err := decodeAll[T](payload.Results)
	if err != nil {
		return nil, err
	}

	if payload.Results == nil {
		payload.Results = []json.RawMessage{}
	}
	if raw, err := json.Marshal(payload.Results); err == nil {
		r.cacheSet(ctx, key, raw)
	}
	return items, nil
}

// Count returns the total the source reports for the collection. filters
// is accepted but not applied. Never cached; failures yield 0.
func (r *Repository[T]) Count(ctx context.Context, filters Filters) int {
	payload, err := r.fetchCollection(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Count degraded to zero")
		return 0
	}
	if len(filters) > 0 {
		r.logger.Debug().Str("filters", filters.String()).Msg("Count ignores filters")
	}
	return payload.Count
}

func (r *Repository[T]) fetchCollection(ctx context.Context) (collectionPayload, error) {
	var payload collectionPayload
	body, err := r.source.Get(ctx, r.source.ResourceURL(r.resource))
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, fmt.Errorf("decode collection payload: %w", err)
	}
	return payload, nil
}

func (r *Repository[T]) cacheCollection(ctx context.Context, key string, items []T, total int) {
	if !r.opts.CacheEnabled {
		return
	}
	cached := cachedCollection{Items: make([]json.RawMessage, 0, len(items)), Total: total}
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("Encode for cache failed")
			return
		}
		cached.Items = append(cached.Items, raw)
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Encode for cache failed")
		return
	}
	r.cacheSet(ctx, key, raw)
}

// cacheGet treats backend errors as a miss.
func (r *Repository[T]) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if !r.opts.CacheEnabled {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn().Err(err).Str("key", key).Msg("Cache get failed, reading through")
		} else {
			r.logger.Debug().Str("key", key).Msg("Cache miss")
		}
		return nil, false
	}
	r.logger.Debug().Str("key", key).Msg("Cache hit")
	return raw, true
}

// cacheSet logs and drops backend errors.
func (r *Repository[T]) cacheSet(ctx context.Context, key string, raw []byte) {
	if !r.opts.CacheEnabled {
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.opts.TTL); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache set failed")
		return
	}
	r.logger.Debug().Str("key", key).Dur("ttl", r.opts.TTL).Msg("Cached payload")
}

func decode[T models.Entity](raw []byte) (T, error) {
	var entity T
	if err := json.Unmarshal(raw, &entity); err != nil {
		return entity, fmt.Errorf("decode entity: %w", err)
	}
	if err := models.Validate(entity); err != nil {
		return entity, err
	}
	return entity, nil
}

func decodeAll[T models.Entity](raws []json.RawMessage) ([]T, error) {
	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		entity, err := decode[T](raw)
		if err != nil {
			return nil, err
		}
		items = append(items, entity)
	}
	return items, nil
}

func notFound(resource, id string, cause error) error {
	e := apperr.NotFound(resource, id)
	e.Err = cause
	return e
}
