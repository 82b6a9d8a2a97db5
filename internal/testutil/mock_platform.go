// Package testutil provides testing utilities for the learncache packages.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock platform endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockPlatform is a configurable mock of the learning platform REST API.
// Unknown paths answer 404.
type MockPlatform struct {
	server   *httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	queues   map[string][]MockResponse

	requestCount int
	pathCounts   map[string]int
	lastHeader   http.Header
	lastBody     []byte
}

// NewMockPlatform starts a new mock platform server.
func NewMockPlatform() *MockPlatform {
	mock := &MockPlatform{
		handlers:   make(map[string]http.HandlerFunc),
		queues:     make(map[string][]MockResponse),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

func (m *MockPlatform) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requestCount++
	m.pathCounts[r.URL.Path]++
	m.lastHeader = r.Header.Clone()
	m.lastBody = body

	var queued *MockResponse
	if q := m.queues[r.URL.Path]; len(q) > 0 {
		queued = &q[0]
		m.queues[r.URL.Path] = q[1:]
	}
	handler, exists := m.handlers[r.URL.Path]
	m.mu.Unlock()

	switch {
	case queued != nil:
		writeResponse(w, *queued)
	case exists:
		handler(w, r)
	default:
		writeResponse(w, NewErrorResponse(http.StatusNotFound, "not found"))
	}
}

// URL returns the mock server URL.
func (m *MockPlatform) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockPlatform) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPlatform) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastHeader = nil
	m.lastBody = nil
}

// SetHandler sets a custom handler for a path.
func (m *MockPlatform) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse answers every request to path with resp.
func (m *MockPlatform) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// QueueResponses answers the next requests to path with resps, in order,
// before falling back to the handler set for path.
func (m *MockPlatform) QueueResponses(path string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[path] = append(m.queues[path], resps...)
}

// RequestCount returns the number of requests served.
func (m *MockPlatform) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// PathCount returns the number of requests served for path.
func (m *MockPlatform) PathCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pathCounts[path]
}

// LastHeader returns the headers of the most recent request.
func (m *MockPlatform) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeader
}

// LastBody returns the body of the most recent request.
func (m *MockPlatform) LastBody() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBody
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewResultResponse creates a 200 OK response wrapping result in the
// platform envelope.
func NewResultResponse(result string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"id":"api.read","responseCode":"OK","result":` + result + `}`,
	}
}

// NewErrorResponse creates an error response with the platform error shape.
func NewErrorResponse(status int, message string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       `{"responseCode":"ERROR","params":{"errmsg":"` + message + `"}}`,
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers:    map[string]string{"Retry-After": "1"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return NewErrorResponse(http.StatusInternalServerError, "internal server error")
}
