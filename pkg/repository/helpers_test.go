package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/cache"
	"github.com/gusttavosants/StarWars/pkg/client"
)

const testBase = "https://swapi.test/api"

// fakeSource serves canned payloads by URL and counts calls.
type fakeSource struct {
	mu       sync.Mutex
	payloads map[string]string
	failures map[string]error
	calls    map[string]int
	delay    time.Duration
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		payloads: make(map[string]string),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeSource) ResourceURL(segments ...string) string {
	return testBase + "/" + strings.Join(segments, "/") + "/"
}

func (f *fakeSource) Get(_ context.Context, url string, _ ...client.RequestOption) (json.RawMessage, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.failures[url]; ok {
		return nil, err
	}
	body, ok := f.payloads[url]
	if !ok {
		return nil, apperr.ExternalSource("SWAPI returned 404 Not Found", 404, nil)
	}
	return json.RawMessage(body), nil
}

func (f *fakeSource) set(url, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[url] = body
}

func (f *fakeSource) fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[url] = err
}

func (f *fakeSource) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeSource) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// countingCache wraps MemoryCache and counts operations.
type countingCache struct {
	*cache.MemoryCache
	mu   sync.Mutex
	gets int
	sets int
}

func newCountingCache() *countingCache {
	return &countingCache{MemoryCache: cache.NewMemoryCache()}
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.MemoryCache.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.MemoryCache.Set(ctx, key, value, ttl)
}

func (c *countingCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

// brokenCache fails every operation.
type brokenCache struct{}

var errBackendDown = errors.New("backend down")

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}
func (brokenCache) Delete(context.Context, string) error          { return errBackendDown }
func (brokenCache) Exists(context.Context, string) (bool, error) { return false, errBackendDown }
func (brokenCache) Clear(context.Context) error                  { return errBackendDown }

// mapEntity is a loosely shaped entity for exercising the filter engine.
type mapEntity map[string]any

func (m mapEntity) GetID() (string, bool) { return "", false }

func (m mapEntity) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

const (
	lukeJSON  = `{"name":"Luke Skywalker","height":"172","mass":"77","gender":"male","url":"https://swapi.test/api/people/1/","films":["https://swapi.test/api/films/1/"]}`
	c3poJSON  = `{"name":"C-3PO","height":"167","mass":"75","gender":"n/a","url":"https://swapi.test/api/people/2/","films":["https://swapi.test/api/films/1/"]}`
	vaderJSON = `{"name":"Darth Vader","height":"202","mass":"136","gender":"male","url":"https://swapi.test/api/people/4/","films":[]}`
	leiaJSON  = `{"name":"Leia Organa","height":"150","mass":"49","gender":"female","url":"https://swapi.test/api/people/5/","films":[]}`
)

func peopleCollection(count int, items ...string) string {
	return `{"count":` + strconv.Itoa(count) + `,"next":null,"previous":null,"results":[` + strings.Join(items, ",") + `]}`
}
