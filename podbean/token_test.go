package podbean

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/onnwee/sermon-publisher/testutil"
)

func testStore(t *testing.T) *TokenStore {
	t.Helper()
	return &TokenStore{Path: filepath.Join(t.TempDir(), "token.json")}
}

func TestTokenSource_GetCached(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := testStore(t)
	now := time.Date(2024, 10, 6, 12, 0, 0, 0, time.UTC)
	saved := Credential{AccessToken: "cached-token", ExpirationTime: now.Add(time.Hour)}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ts := &TokenSource{
		APIKey:    "test-key",
		APISecret: "test-secret",
		BaseURL:   server.URL,
		Store:     store,
		Now:       func() time.Time { return now },
	}

	cred, err := ts.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cred.AccessToken != "cached-token" {
		t.Errorf("Get() = %s, want cached-token", cred.AccessToken)
	}
	if callCount != 0 {
		t.Errorf("expected 0 API calls for a valid cached credential, got %d", callCount)
	}
}

func TestTokenSource_GetExchangesWhenExpired(t *testing.T) {
	server := testutil.NewMockPodbeanServer(t)
	server.MockOAuthToken("fresh-token", 3600)

	store := testStore(t)
	now := time.Date(2024, 10, 6, 12, 0, 0, 0, time.UTC)
	expired := Credential{AccessToken: "stale-token", ExpirationTime: now.Add(-time.Minute)}
	if err := store.Save(expired); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ts := &TokenSource{
		APIKey:    "test-key",
		APISecret: "test-secret",
		BaseURL:   server.URL,
		Store:     store,
		Now:       func() time.Time { return now },
	}

	cred, err := ts.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cred.AccessToken != "fresh-token" {
		t.Errorf("Get() = %s, want fresh-token", cred.AccessToken)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after exchange error = %v", err)
	}
	if persisted.AccessToken != "fresh-token" {
		t.Errorf("persisted token = %s, want fresh-token", persisted.AccessToken)
	}
}

func TestTokenSource_GetExchangesWhenMissing(t *testing.T) {
	server := testutil.NewMockPodbeanServer(t)
	server.MockOAuthToken("first-token", 3600)

	ts := &TokenSource{
		APIKey:    "test-key",
		APISecret: "test-secret",
		BaseURL:   server.URL,
		Store:     testStore(t),
	}

	cred, err := ts.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cred.AccessToken != "first-token" {
		t.Errorf("Get() = %s, want first-token", cred.AccessToken)
	}
}

func TestTokenSource_GetMissingCredentials(t *testing.T) {
	ts := &TokenSource{
		BaseURL: "http://unused.invalid",
		Store:   testStore(t),
	}

	_, err := ts.Get(context.Background())
	if err == nil {
		t.Fatal("Get() with missing key/secret should return error")
	}
	if !IsKind(err, KindAuth) {
		t.Errorf("Get() error = %v, want KindAuth", err)
	}
}

func TestTokenSource_GetServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	ts := &TokenSource{
		APIKey:    "bad-key",
		APISecret: "bad-secret",
		BaseURL:   server.URL,
		Store:     testStore(t),
	}

	_, err := ts.Get(context.Background())
	if err == nil {
		t.Fatal("Get() with server error should return error")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("Get() error = %T, want *Error", err)
	}
	if perr.Kind != KindAuth {
		t.Errorf("error kind = %v, want KindAuth", perr.Kind)
	}
	if perr.Status != http.StatusUnauthorized {
		t.Errorf("error status = %d, want %d", perr.Status, http.StatusUnauthorized)
	}
}

func TestCredential_ValidAt(t *testing.T) {
	now := time.Date(2024, 10, 6, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		cred Credential
		want bool
	}{
		{"fresh", Credential{AccessToken: "t", ExpirationTime: now.Add(time.Hour)}, true},
		{"expires exactly now", Credential{AccessToken: "t", ExpirationTime: now}, true},
		{"expired", Credential{AccessToken: "t", ExpirationTime: now.Add(-time.Second)}, false},
		{"no token", Credential{ExpirationTime: now.Add(time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.ValidAt(now); got != tt.want {
				t.Errorf("ValidAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenStore_RemoveMissing(t *testing.T) {
	store := testStore(t)
	if err := store.Remove(); err != nil {
		t.Errorf("Remove() on missing file error = %v, want nil", err)
	}
}

func TestTokenStore_RemoveDeletesFile(t *testing.T) {
	store := testStore(t)
	if err := store.Save(Credential{AccessToken: "t", ExpirationTime: time.Now()}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("Load() after Remove() should fail")
	}
}
