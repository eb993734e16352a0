// Package testutil provides testing utilities for the SWAPI facade.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockSWAPIResponse defines the behavior for a mock SWAPI endpoint response.
type MockSWAPIResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSWAPI is a configurable mock SWAPI server for testing. It serves a
// small fixed data set for people, films, planets and starships in the
// same shape as swapi.dev, including search and page parameters.
type MockSWAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	data     map[string]map[string]map[string]any
	pageSize int

	// Tracking
	RequestCount      int
	PathCounts        map[string]int
	LastRequestHeader http.Header
}

// NewMockSWAPI creates a new mock SWAPI server loaded with Fixtures.
func NewMockSWAPI() *MockSWAPI {
	mock := &MockSWAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
		pageSize:   10,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	mock.data = Fixtures(mock.BaseURL())
	return mock
}

// URL returns the mock server URL.
func (m *MockSWAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API root, the equivalent of https://swapi.dev/api.
func (m *MockSWAPI) BaseURL() string {
	return m.server.URL + "/api"
}

// Close shuts down the mock server.
func (m *MockSWAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSWAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.LastRequestHeader = nil
}

// SetPageSize changes the collection page size (default 10).
func (m *MockSWAPI) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSWAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockSWAPI) SetResponse(path string, resp MockSWAPIResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// Put adds or replaces an item in the served data set.
func (m *MockSWAPI) Put(resource, id string, item map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[resource] == nil {
		m.data[resource] = make(map[string]map[string]any)
	}
	m.data[resource][id] = item
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSWAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockSWAPI) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// defaultHandler serves /api/<resource>/ and /api/<resource>/<id>/.
func (m *MockSWAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/"), "/")

	m.mu.RLock()
	defer m.mu.RUnlock()

	items, ok := m.data[parts[0]]
	if !ok || len(parts) > 2 {
		writeNotFound(w)
		return
	}

	if len(parts) == 2 {
		item, ok := items[parts[1]]
		if !ok {
			writeNotFound(w)
			return
		}
		json.NewEncoder(w).Encode(item)
		return
	}

	m.writeCollection(w, r, parts[0], items)
}

func (m *MockSWAPI) writeCollection(w http.ResponseWriter, r *http.Request, resource string, items map[string]map[string]any) {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})

	search := strings.ToLower(r.URL.Query().Get("search"))
	results := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		item := items[id]
		if search != "" {
			label, _ := item["name"].(string)
			if title, ok := item["title"].(string); ok {
				label = title
			}
			if !strings.Contains(strings.ToLower(label), search) {
				continue
			}
		}
		results = append(results, item)
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	start := (page - 1) * m.pageSize
	if start > len(results) {
		writeNotFound(w)
		return
	}
	end := start + m.pageSize
	if end > len(results) {
		end = len(results)
	}

	var next any
	if end < len(results) {
		next = fmt.Sprintf("%s/%s/?page=%d", m.BaseURL(), resource, page+1)
	}

	json.NewEncoder(w).Encode(map[string]any{
		"count":    len(results),
		"next":     next,
		"previous": nil,
		"results":  results[start:end],
	})
}

func writeNotFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"detail": "Not found"}`))
}

// NewItemResponse creates a standard 200 OK response carrying data.
func NewItemResponse(data string) MockSWAPIResponse {
	return MockSWAPIResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewCollectionResponse wraps raw result items in a SWAPI list envelope.
func NewCollectionResponse(count int, results ...string) MockSWAPIResponse {
	return NewItemResponse(fmt.Sprintf(`{"count": %d, "next": null, "previous": null, "results": [%s]}`,
		count, strings.Join(results, ",")))
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockSWAPIResponse {
	return MockSWAPIResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"detail": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewSlowResponse creates a 200 OK response delivered after delay.
func NewSlowResponse(data string, delay time.Duration) MockSWAPIResponse {
	resp := NewItemResponse(data)
	resp.Delay = delay
	return resp
}
