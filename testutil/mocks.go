package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockPodbeanServer creates a test server that mocks Podbean API responses
type MockPodbeanServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockPodbeanServer creates a new mock Podbean API server
func NewMockPodbeanServer(t *testing.T) *MockPodbeanServer {
	t.Helper()
	m := &MockPodbeanServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockOAuthToken adds a handler for the /oauth/token endpoint
func (m *MockPodbeanServer) MockOAuthToken(accessToken string, expiresIn int) {
	m.Handlers["/oauth/token"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "bearer",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockUploadAuthorize adds handlers for /files/uploadAuthorize and the
// presigned upload target it hands back
func (m *MockPodbeanServer) MockUploadAuthorize(fileKey string) {
	m.Handlers["/files/uploadAuthorize"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"presigned_url": m.URL + "/presigned-upload",
			"file_key":      fileKey,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
	m.Handlers["/presigned-upload"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

// MockEpisodeCreate adds a handler for POST /episodes
func (m *MockPodbeanServer) MockEpisodeCreate(id, title, playerURL string) {
	m.Handlers["/episodes"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"episode": map[string]string{
				"id":         id,
				"title":      title,
				"player_url": playerURL,
				"status":     "publish",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockEpisodeList adds a handler for GET /episodes
func (m *MockPodbeanServer) MockEpisodeList(episodes []map[string]string) {
	m.Handlers["/episodes"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"episodes": episodes,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockWordPressServer creates a test server that mocks WordPress REST API responses
type MockWordPressServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockWordPressServer creates a new mock WordPress API server
func NewMockWordPressServer(t *testing.T) *MockWordPressServer {
	t.Helper()
	m := &MockWordPressServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockTaxonomy adds a handler for a taxonomy endpoint: GET searches the given
// terms (single page), POST creates a term with createdID
func (m *MockWordPressServer) MockTaxonomy(taxonomy string, existing []map[string]interface{}, createdID int) {
	m.Handlers["/"+taxonomy] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck // test mock request
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":   createdID,
				"name": body["name"],
				"slug": body["slug"],
			})
			return
		}
		w.Header().Set("X-WP-TotalPages", "1")
		_ = json.NewEncoder(w).Encode(existing) //nolint:errcheck // test mock response
	}
}

// MockMediaSearch adds a handler for GET /media
func (m *MockWordPressServer) MockMediaSearch(items []map[string]interface{}) {
	m.Handlers["/media"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(items) //nolint:errcheck // test mock response
	}
}

// MockSermonLookup adds a handler for GET /sermons?slug=... that reports the
// given slugs as existing
func (m *MockWordPressServer) MockSermonLookup(existingSlugs ...string) {
	m.Handlers["/sermons"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		slug := r.URL.Query().Get("slug")
		for _, s := range existingSlugs {
			if s == slug {
				_ = json.NewEncoder(w).Encode([]map[string]interface{}{{"id": 1, "slug": s}})
				return
			}
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{})
	}
}
