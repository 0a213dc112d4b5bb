package testutil

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/einvoicehub/einvoicehub/internal/httpclient"
)

// MockHTTPClient implements a mock HTTP client for testing. It mirrors the
// real client's error contract: responses with status >= 400 come back as
// httpclient errors, not as Response values.
type MockHTTPClient struct {
	mu     sync.Mutex
	routes map[string][]MockResponse
	errs   map[string]error
	calls  map[string]int
}

// MockResponse represents a mock HTTP response
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		routes: make(map[string][]MockResponse),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

// RegisterResponse registers a mock response for a URL fragment
func (m *MockHTTPClient) RegisterResponse(url string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = []MockResponse{resp}
}

// RegisterResponses registers a sequence of responses served in order; the
// last one repeats once the sequence is exhausted
func (m *MockHTTPClient) RegisterResponses(url string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = resps
}

// RegisterError makes every call to the URL fragment fail with err
func (m *MockHTTPClient) RegisterError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[url] = err
}

// Calls reports how many requests matched the URL fragment
func (m *MockHTTPClient) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// Send implements the httpclient.Client interface
func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for route, err := range m.errs {
		if strings.Contains(req.URL, route) {
			m.calls[route]++
			return nil, err
		}
	}

	for route, resps := range m.routes {
		if !strings.Contains(req.URL, route) {
			continue
		}
		n := m.calls[route]
		m.calls[route]++
		if n >= len(resps) {
			n = len(resps) - 1
		}
		resp := resps[n]
		if resp.StatusCode >= 400 {
			return nil, httpclient.NewError(resp.StatusCode, resp.Body)
		}
		return &httpclient.Response{
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			Headers:    resp.Headers,
		}, nil
	}

	return nil, httpclient.NewError(http.StatusNotFound, []byte("no mock registered for "+req.URL))
}

// Clear removes all registered responses and call counts
func (m *MockHTTPClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string][]MockResponse)
	m.errs = make(map[string]error)
	m.calls = make(map[string]int)
}
