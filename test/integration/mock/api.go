package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// ApiMock is a scripted stand-in for an external JSON API. Requests are
// recorded per method and path; responses default to 200 with an empty object.
type ApiMock struct {
	mu               sync.Mutex
	server           *httptest.Server
	requestsReceived map[string][]map[string]any
	headersReceived  map[string][]http.Header
	responses        map[string][]scriptedResponse
	defaults         map[string]scriptedResponse
}

type scriptedResponse struct {
	status int
	body   any
}

func NewApiServer() *ApiMock {
	return &ApiMock{
		requestsReceived: map[string][]map[string]any{},
		headersReceived:  map[string][]http.Header{},
		responses:        map[string][]scriptedResponse{},
		defaults:         map[string]scriptedResponse{},
	}
}

func (a *ApiMock) Start() {
	a.server = httptest.NewServer(http.HandlerFunc(a.handle))
}

func (a *ApiMock) Close() {
	if a.server != nil {
		a.server.Close()
	}
}

func (a *ApiMock) GetUrl() string {
	return a.server.URL
}

func (a *ApiMock) handle(w http.ResponseWriter, r *http.Request) {
	key := r.Method + r.URL.Path

	body, _ := io.ReadAll(r.Body)
	var request map[string]any
	_ = json.Unmarshal(body, &request)
	if request == nil {
		request = map[string]any{}
	}

	a.mu.Lock()
	a.requestsReceived[key] = append(a.requestsReceived[key], request)
	a.headersReceived[key] = append(a.headersReceived[key], r.Header.Clone())
	resp := a.nextResponse(key)
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_ = json.NewEncoder(w).Encode(resp.body)
}

// nextResponse pops the next scripted response, falling back to the default.
func (a *ApiMock) nextResponse(key string) scriptedResponse {
	if queued := a.responses[key]; len(queued) > 0 {
		a.responses[key] = queued[1:]
		return queued[0]
	}
	if resp, ok := a.defaults[key]; ok {
		return resp
	}
	return scriptedResponse{status: http.StatusOK, body: map[string]any{}}
}

// SetDefaultResponse answers every unscripted call to method+path.
func (a *ApiMock) SetDefaultResponse(method, path string, status int, body any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaults[method+path] = scriptedResponse{status: status, body: body}
}

// QueueResponse answers the next call to method+path, before any default.
func (a *ApiMock) QueueResponse(method, path string, status int, body any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses[method+path] = append(a.responses[method+path], scriptedResponse{status: status, body: body})
}

func (a *ApiMock) GetRequestBodies(method, path string) []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]map[string]any(nil), a.requestsReceived[method+path]...)
}

func (a *ApiMock) GetRequestHeaders(method, path string, index int) http.Header {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index >= len(a.headersReceived[method+path]) {
		return nil
	}
	return a.headersReceived[method+path][index]
}

// Reset drops recorded requests and scripted responses.
func (a *ApiMock) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requestsReceived = map[string][]map[string]any{}
	a.headersReceived = map[string][]http.Header{}
	a.responses = map[string][]scriptedResponse{}
	a.defaults = map[string]scriptedResponse{}
}
