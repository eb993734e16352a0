// Package cache provides the TTL key/value store the SWAPI repositories
// read through.
//
// Two backends implement Cache:
//
//   - MemoryCache: a mutex-guarded map, one per process
//   - RedisCache: JSON entries in Redis with SETEX, shared across instances
//
// Every write requires a TTL. Get and Exists both treat an expired entry
// as a miss and delete it.
//
// # Basic Usage
//
//	c, err := cache.New(ctx, cache.Config{RedisURL: os.Getenv("REDIS_URL")}, logger)
//	if err != nil {
//		return err
//	}
//
//	key := cache.NewKey("people", cache.OpByID, "1").String() // people:by_id:1
//
//	data, err := c.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from SWAPI, then
//		_ = c.Set(ctx, key, payload, 5*time.Minute)
//	}
//
// # Metrics
//
//   - swapi_cache_hits_total{layer} - Cache hits
//   - swapi_cache_misses_total{layer} - Cache misses, expired entries included
//   - swapi_cache_evictions_total{layer} - Expired entries removed on read
//   - swapi_cache_memory_entries - Entries held by MemoryCache
//   - swapi_cache_errors_total{operation} - Backend errors
package cache
