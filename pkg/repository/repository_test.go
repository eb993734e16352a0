package repository

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/gusttavosants/StarWars/internal/testutil"
	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/cache"
	"github.com/gusttavosants/StarWars/pkg/client"
	"github.com/gusttavosants/StarWars/pkg/models"
)

var cacheOn = Options{CacheEnabled: true}

func TestGetByID_CacheDisabled_Luke(t *testing.T) {
	mock := testutil.NewMockSWAPI()
	defer mock.Close()

	c, err := client.New(client.Config{BaseURL: mock.BaseURL(), UserAgent: "test"})
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	repo := NewCharacterRepository(c, nil, Options{})

	luke, err := repo.GetByID(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if luke.Name != "Luke Skywalker" {
		t.Errorf("Name = %q, want Luke Skywalker", luke.Name)
	}
	if luke.Height != "172" {
		t.Errorf("Height = %q, want 172", luke.Height)
	}
	if id, ok := luke.GetID(); !ok || id != "1" {
		t.Errorf("GetID() = (%q, %v), want (1, true)", id, ok)
	}
}

func TestGetByID_CacheHitSkipsSource(t *testing.T) {
	src := newFakeSource()
	mc := cache.NewMemoryCache()
	if err := mc.Set(context.Background(), "people:by_id:1", []byte(lukeJSON), DefaultTTL); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	repo := NewCharacterRepository(src, mc, cacheOn)

	luke, err := repo.GetByID(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if luke.Name != "Luke Skywalker" {
		t.Errorf("Name = %q, want Luke Skywalker", luke.Name)
	}
	if n := src.totalCalls(); n != 0 {
		t.Errorf("source called %d times on cache hit, want 0", n)
	}
}

func TestGetByID_CacheMissFetchesOnceAndPopulates(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/people/1/", lukeJSON)
	cc := newCountingCache()
	repo := NewCharacterRepository(src, cc, cacheOn)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "1"); err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if n := src.callCount(testBase + "/people/1/"); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
	if n := cc.setCount(); n != 1 {
		t.Errorf("cache set %d times, want 1", n)
	}

	raw, err := cc.MemoryCache.Get(ctx, "people:by_id:1")
	if err != nil {
		t.Fatalf("cache missing people:by_id:1: %v", err)
	}
	if string(raw) != lukeJSON {
		t.Errorf("cached payload = %s, want raw source payload", raw)
	}

	// Second call is served from cache.
	if _, err := repo.GetByID(ctx, "1"); err != nil {
		t.Fatalf("second GetByID failed: %v", err)
	}
	if n := src.callCount(testBase + "/people/1/"); n != 1 {
		t.Errorf("source called %d times after cache hit, want 1", n)
	}
}

func TestGetByID_FailuresAreNotFound(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeSource)
	}{
		{"upstream 404", func(*fakeSource) {}},
		{"transport failure", func(s *fakeSource) {
			s.fail(testBase+"/people/1/", apperr.ExternalSource("SWAPI request failed", http.StatusBadGateway, errors.New("dial tcp: refused")))
		}},
		{"timeout", func(s *fakeSource) {
			s.fail(testBase+"/people/1/", apperr.ExternalSource("SWAPI request timed out", http.StatusGatewayTimeout, nil))
		}},
		{"malformed payload", func(s *fakeSource) { s.set(testBase+"/people/1/", `[1,2,3]`) }},
		{"missing required name", func(s *fakeSource) { s.set(testBase+"/people/1/", `{"height":"172"}`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			tt.setup(src)
			repo := NewCharacterRepository(src, nil, Options{})

			_, err := repo.GetByID(context.Background(), "1")
			if !errors.Is(err, apperr.ErrNotFound) {
				t.Fatalf("error = %v, want not found", err)
			}
			if apperr.StatusOf(err) != http.StatusNotFound {
				t.Errorf("StatusOf = %d, want 404", apperr.StatusOf(err))
			}
		})
	}
}

func TestGetByID_CacheFailureReadsThrough(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/people/1/", lukeJSON)
	repo := NewCharacterRepository(src, brokenCache{}, cacheOn)

	luke, err := repo.GetByID(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetByID with broken cache failed: %v", err)
	}
	if luke.Name != "Luke Skywalker" {
		t.Errorf("Name = %q, want Luke Skywalker", luke.Name)
	}
}

func TestGetByID_ConcurrentMisses(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/people/1/", lukeJSON)
	mc := cache.NewMemoryCache()
	repo := NewCharacterRepository(src, mc, cacheOn)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	names := make([]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := repo.GetByID(ctx, "1")
			errs[i], names[i] = err, c.Name
		}(i)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Errorf("call %d failed: %v", i, errs[i])
		}
		if names[i] != "Luke Skywalker" {
			t.Errorf("call %d name = %q", i, names[i])
		}
	}

	raw, err := mc.Get(ctx, "people:by_id:1")
	if err != nil {
		t.Fatalf("cache missing entry: %v", err)
	}
	if string(raw) != lukeJSON {
		t.Errorf("cached payload = %s, want %s", raw, lukeJSON)
	}
}

func TestGetAll_ReturnsSourceTotal(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/people/", peopleCollection(82, lukeJSON))
	repo := NewCharacterRepository(src, nil, Options{})

	items, total := repo.GetAll(context.Background(), Query{Page: 1, PageSize: 10})
	if len(items) != 1 || total != 82 {
		t.Errorf("GetAll = (%d items, %d), want (1, 82)", len(items), total)
	}
}

func TestGetAll_PageNotForwarded(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/people/", peopleCollection(4, lukeJSON, c3poJSON, vaderJSON, leiaJSON))
	repo := NewCharacterRepository(src, nil, Options{})

	items, total := repo.GetAll(context.Background(), Query{Page: 3, PageSize: 1})
	if len(items) != 4 || total != 4 {
		t.Errorf("GetAll(page=3,size=1) = (%d, %d), want the whole first batch (4, 4)", len(items), total)
	}
	if n := src.callCount(testBase + "/people/"); n != 1 {
		t.Errorf("collection fetched %d times, want 1", n)
	}
}

func TestGetAll_FilterAndSort(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/people/", peopleCollection(4, lukeJSON, c3poJSON, vaderJSON, leiaJSON))
	repo := NewCharacterRepository(src, nil, Options{})
	ctx := context.Background()

	tests := []struct {
		name      string
		query     Query
		wantNames []string
		wantTotal int
	}{
		{
			name:      "eq matching",
			query:     Query{Page: 1, PageSize: 10, Filters: Filters{"gender": Eq("male")}},
			wantNames: []string{"Luke Skywalker", "Darth Vader"},
			wantTotal: 4,
		},
		{
			name:      "eq not matching",
			query:     Query{Page: 1, PageSize: 10, Filters: Filters{"gender": Eq("droid")}},
			wantNames: []string{},
			wantTotal: 4,
		},
		{
			name:      "contains is case-insensitive",
			query:     Query{Page: 1, PageSize: 10, Filters: Filters{"name": Contains("luke")}},
			wantNames: []string{"Luke Skywalker"},
			wantTotal: 4,
		},
		{
			name:      "sort by name asc",
			query:     Query{Page: 1, PageSize: 10, SortBy: "name", SortOrder: SortAsc},
			wantNames: []string{"C-3PO", "Darth Vader", "Leia Organa", "Luke Skywalker"},
			wantTotal: 4,
		},
		{
			name:      "sort desc then filter",
			query:     Query{Page: 1, PageSize: 10, SortBy: "name", SortOrder: SortDesc, Filters: Filters{"gender": Eq("male")}},
			wantNames: []string{"Luke Skywalker", "Darth Vader"},
			wantTotal: 4,
		},
		{
			name:      "invalid filter degrades to empty",
			query:     Query{Page: 1, PageSize: 10, Filters: Filters{"midichlorians": Eq("high")}},
			wantNames: []string{},
			wantTotal: 0,
		},
		{
			name:      "invalid sort degrades to empty",
			query:     Query{Page: 1, PageSize: 10, SortBy: "lightsaber"},
			wantNames: []string{},
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total := repo.GetAll(ctx, tt.query)
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if items == nil {
				t.Fatal("GetAll returned nil slice")
			}
			got := make([]string, len(items))
			for i, c := range items {
				got[i] = c.Name
			}
			if len(got) != len(tt.wantNames) {
				t.Fatalf("names = %v, want %v", got, tt.wantNames)
			}
			for i := range got {
				if got[i] != tt.wantNames[i] {
					t.Errorf("names = %v, want %v", got, tt.wantNames)
					break
				}
			}
		})
	}
}

func TestGetAll_CacheHitSkipsSourceAndRefilter(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/people/", peopleCollection(4, lukeJSON, c3poJSON, vaderJSON, leiaJSON))
	mc := cache.NewMemoryCache()
	repo := NewCharacterRepository(src, mc, cacheOn)
	ctx := context.Background()

	q := Query{Page: 1, PageSize: 10, Filters: Filters{"gender": Eq("male")}, SortBy: "name", SortOrder: SortAsc}
	first, total := repo.GetAll(ctx, q)
	if len(first) != 2 || total != 4 {
		t.Fatalf("first GetAll = (%d, %d), want (2, 4)", len(first), total)
	}

	key := `people:all:1_10_"gender"="eq":"male"_name_asc`
	if ok, _ := mc.Exists(ctx, key); !ok {
		t.Fatalf("expected cache entry %s", key)
	}

	// Upstream changes are invisible while the entry lives.
	src.set(testBase+"/people/", peopleCollection(1, leiaJSON))

	second, total := repo.GetAll(ctx, q)
	if len(second) != 2 || total != 4 {
		t.Errorf("cached GetAll = (%d, %d), want (2, 4)", len(second), total)
	}
	if second[0].Name != "Darth Vader" || second[1].Name != "Luke Skywalker" {
		t.Errorf("cached order = [%s %s], want [Darth Vader Luke Skywalker]", second[0].Name, second[1].Name)
	}
	if n := src.callCount(testBase + "/people/"); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
}

func TestGetAll_DistinctQueriesDoNotCollide(t *testing.T) {
	const abJSON = `{"name":"a b","height":"4","gender":"n/a","url":"https://swapi.test/api/people/9/"}`

	tests := []struct {
		name        string
		first, then Filters
		wantFirst   int
		wantThen    int
	}{
		{"different values", Filters{"gender": Eq("male")}, Filters{"gender": Eq("female")}, 2, 1},
		{"one value with a space vs two values", Filters{"name": In("a b")}, Filters{"name": In("a", "b")}, 1, 0},
		{"separator inside a value", Filters{"name": Eq("x,url=eq:y")}, Filters{"name": Eq("x"), "url": Eq("y")}, 0, 0},
		{"numeric string vs int", Filters{"height": Eq("4")}, Filters{"height": Eq(4)}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.set(testBase+"/people/", peopleCollection(5, lukeJSON, c3poJSON, vaderJSON, leiaJSON, abJSON))
			repo := NewCharacterRepository(src, cache.NewMemoryCache(), cacheOn)
			ctx := context.Background()

			first, _ := repo.GetAll(ctx, Query{Page: 1, PageSize: 10, Filters: tt.first})
			then, _ := repo.GetAll(ctx, Query{Page: 1, PageSize: 10, Filters: tt.then})

			if len(first) != tt.wantFirst || len(then) != tt.wantThen {
				t.Errorf("GetAll = %d then %d items, want %d then %d", len(first), len(then), tt.wantFirst, tt.wantThen)
			}
			if n := src.callCount(testBase + "/people/"); n != 2 {
				t.Errorf("source called %d times, want 2 (one per distinct query)", n)
			}
		})
	}
}

func TestGetAll_SourceFailureDegrades(t *testing.T) {
	src := newFakeSource()
	src.fail(testBase+"/people/", apperr.ExternalSource("boom", http.StatusBadGateway, nil))
	repo := NewCharacterRepository(src, nil, Options{})

	items, total := repo.GetAll(context.Background(), DefaultQuery())
	if len(items) != 0 || total != 0 {
		t.Errorf("GetAll = (%d, %d), want (0, 0)", len(items), total)
	}
}

func TestSearch(t *testing.T) {
	mock := testutil.NewMockSWAPI()
	defer mock.Close()
	c, _ := client.New(client.Config{BaseURL: mock.BaseURL(), UserAgent: "test"})
	mc := cache.NewMemoryCache()
	repo := NewCharacterRepository(c, mc, cacheOn)
	ctx := context.Background()

	results := repo.Search(ctx, "sky")
	if len(results) != 1 || results[0].Name != "Luke Skywalker" {
		t.Fatalf("Search(sky) = %+v, want [Luke Skywalker]", results)
	}

	if ok, _ := mc.Exists(ctx, "people:search:sky"); !ok {
		t.Error("search result not cached under people:search:sky")
	}

	before := mock.GetRequestCount()
	_ = repo.Search(ctx, "sky")
	if mock.GetRequestCount() != before {
		t.Error("cached search hit the source")
	}

	if none := repo.Search(ctx, "jar jar"); len(none) != 0 {
		t.Errorf("Search(jar jar) = %d results, want 0", len(none))
	}
}

func TestSearch_FailureDegrades(t *testing.T) {
	src := newFakeSource()
	src.fail(testBase+"/people/", errors.New("down"))
	repo := NewCharacterRepository(src, nil, Options{})

	if got := repo.Search(context.Background(), "luke"); got == nil || len(got) != 0 {
		t.Errorf("Search = %v, want empty non-nil slice", got)
	}
}

func TestCount(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/people/", peopleCollection(82, lukeJSON))
	repo := NewCharacterRepository(src, cache.NewMemoryCache(), cacheOn)
	ctx := context.Background()

	if got := repo.Count(ctx, nil); got != 82 {
		t.Errorf("Count = %d, want 82", got)
	}
	if got := repo.Count(ctx, Filters{"gender": Eq("female")}); got != 82 {
		t.Errorf("Count with filters = %d, want unfiltered 82", got)
	}
	if n := src.callCount(testBase + "/people/"); n != 2 {
		t.Errorf("source called %d times, want 2 (count is never cached)", n)
	}

	src.fail(testBase+"/people/", errors.New("down"))
	if got := repo.Count(ctx, nil); got != 0 {
		t.Errorf("Count on failure = %d, want 0", got)
	}
}

type pagesFunc func(ctx context.Context, endpoint string) (map[int][]byte, error)

func (f pagesFunc) FetchAllPages(ctx context.Context, endpoint string) (map[int][]byte, error) {
	return f(ctx, endpoint)
}

func TestWarm(t *testing.T) {
	src := newFakeSource()
	mc := cache.NewMemoryCache()
	repo := NewCharacterRepository(src, mc, cacheOn)
	ctx := context.Background()

	var gotEndpoint string
	pages := pagesFunc(func(_ context.Context, endpoint string) (map[int][]byte, error) {
		gotEndpoint = endpoint
		return map[int][]byte{
			1: []byte(peopleCollection(3, lukeJSON, c3poJSON)),
			2: []byte(peopleCollection(3, leiaJSON, `{"height":"1"}`)),
		}, nil
	})

	stored, err := repo.Warm(ctx, pages)
	if err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	if gotEndpoint != "people/" {
		t.Errorf("endpoint = %q, want people/", gotEndpoint)
	}
	if stored != 3 {
		t.Errorf("stored = %d, want 3", stored)
	}

	leia, err := repo.GetByID(ctx, "5")
	if err != nil || leia.Name != "Leia Organa" {
		t.Errorf("GetByID(5) after warm = (%q, %v)", leia.Name, err)
	}
	if src.totalCalls() != 0 {
		t.Error("warmed GetByID reached the source")
	}
}

func TestWarm_CacheDisabled(t *testing.T) {
	repo := NewCharacterRepository(newFakeSource(), nil, Options{})
	called := false
	n, err := repo.Warm(context.Background(), pagesFunc(func(context.Context, string) (map[int][]byte, error) {
		called = true
		return nil, nil
	}))
	if n != 0 || err != nil || called {
		t.Errorf("Warm with cache disabled = (%d, %v), called=%v", n, err, called)
	}
}

func TestResourceBindings(t *testing.T) {
	src := newFakeSource()
	tests := []struct {
		got, want string
	}{
		{NewCharacterRepository(src, nil, Options{}).Resource(), "people"},
		{NewFilmRepository(src, nil, Options{}).Resource(), "films"},
		{NewPlanetRepository(src, nil, Options{}).Resource(), "planets"},
		{NewStarshipRepository(src, nil, Options{}).Resource(), "starships"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Resource() = %q, want %q", tt.got, tt.want)
		}
	}

	if got := NewFilmRepository(src, nil, Options{}).ResourceURL("4"); got != testBase+"/films/4/" {
		t.Errorf("ResourceURL(4) = %q", got)
	}
}

func TestFilmEpisodeFilter(t *testing.T) {
	src := newFakeSource()
	src.set(testBase+"/films/", `{"count":2,"results":[
		{"title":"A New Hope","episode_id":4,"director":"George Lucas","url":"https://swapi.test/api/films/1/"},
		{"title":"The Empire Strikes Back","episode_id":5,"director":"Irvin Kershner","url":"https://swapi.test/api/films/2/"}]}`)
	repo := NewFilmRepository(src, nil, Options{})

	films, _ := repo.GetAll(context.Background(), Query{Page: 1, PageSize: 10, Filters: Filters{"episode_id": Eq(5)}})
	if len(films) != 1 || films[0].Title != "The Empire Strikes Back" {
		t.Errorf("episode_id=5 filter = %+v", films)
	}

	films, _ = repo.GetAll(context.Background(), Query{Page: 1, PageSize: 10, SortBy: "episode_id", SortOrder: SortDesc})
	if len(films) != 2 || *films[0].EpisodeID != 5 {
		t.Errorf("episode_id desc sort = %+v", films)
	}
}

func TestDecode_EntityShape(t *testing.T) {
	raw := json.RawMessage(`{"name":"X-wing","MGLT":"100","url":"https://swapi.test/api/starships/12/"}`)
	ship, err := decode[models.Starship](raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ship.MGLT != "100" {
		t.Errorf("MGLT = %q, want 100", ship.MGLT)
	}
}
