// Package pagination holds page math for API responses and a parallel
// batch fetcher that walks every page of a SWAPI collection.
//
// SWAPI collections are served ten items per page with a "count" field.
// The batch fetcher is used to warm the cache at startup:
//
//	fetcher := pagination.NewBatchFetcher(swapiClient, pagination.DefaultConfig())
//	pages, err := fetcher.FetchAllPages(ctx, "people/")
//
// The batch fetcher:
//   - Fetches the first page to determine total pages
//   - Spawns a bounded worker pool for the remaining pages
//   - Keeps successful pages when others fail and reports the first error
package pagination
