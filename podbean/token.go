// Package podbean contains a small client for the Podbean REST API: credential
// caching, audio upload via presigned URLs, episode creation and listing, and
// the embeddable player builder.
package podbean

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Credential is the persisted access token. There is exactly one active
// credential per client identity; each successful exchange overwrites it.
type Credential struct {
	AccessToken    string    `json:"access_token"`
	ExpirationTime time.Time `json:"expiration_time"`
}

// ValidAt reports whether the credential is usable at t. No grace period.
func (c Credential) ValidAt(t time.Time) bool {
	return c.AccessToken != "" && !t.After(c.ExpirationTime)
}

// TokenStore persists a single credential record as JSON at Path.
type TokenStore struct {
	Path string
}

// Load reads the persisted credential. A missing file returns os.ErrNotExist.
func (s *TokenStore) Load() (Credential, error) {
	var c Credential
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return Credential{}, fmt.Errorf("decode credential file %s: %w", s.Path, err)
	}
	return c, nil
}

// Save overwrites the persisted credential.
func (s *TokenStore) Save(c Credential) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path, b, 0o600); err != nil {
		return fmt.Errorf("write credential file %s: %w", s.Path, err)
	}
	return nil
}

// Remove clears the persisted credential, forcing re-authentication next run.
func (s *TokenStore) Remove() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file %s: %w", s.Path, err)
	}
	return nil
}

// TokenSource returns a valid Podbean access token, reusing the persisted
// credential while it is fresh and performing a client-credentials exchange
// (basic-auth encoded key/secret) when it is missing or expired.
type TokenSource struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	Store      *TokenStore
	HTTPClient *http.Client
	Now        func() time.Time // defaults to time.Now
}

func (ts *TokenSource) now() time.Time {
	if ts.Now != nil {
		return ts.Now()
	}
	return time.Now()
}

// Get returns a usable credential without a network call when the persisted
// one is still valid; otherwise it authenticates and persists the result.
// Exchange failures surface as *Error with KindAuth and the HTTP status.
func (ts *TokenSource) Get(ctx context.Context) (Credential, error) {
	if cred, err := ts.Store.Load(); err == nil && cred.ValidAt(ts.now()) {
		slog.Debug("using cached podbean credential", slog.Time("expires", cred.ExpirationTime))
		return cred, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("podbean credential file unreadable, re-authenticating", slog.Any("err", err))
	}

	if ts.APIKey == "" || ts.APISecret == "" {
		return Credential{}, &Error{Kind: KindAuth, Err: errors.New("missing api key/secret")}
	}

	cc := &clientcredentials.Config{
		ClientID:     ts.APIKey,
		ClientSecret: ts.APISecret,
		TokenURL:     ts.BaseURL + "/oauth/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	if ts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, ts.HTTPClient)
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return Credential{}, &Error{Kind: KindAuth, Status: re.Response.StatusCode, Err: err}
		}
		return Credential{}, &Error{Kind: KindAuth, Err: err}
	}

	cred := Credential{AccessToken: tok.AccessToken, ExpirationTime: tok.Expiry}
	if err := ts.Store.Save(cred); err != nil {
		return Credential{}, &Error{Kind: KindAuth, Err: err}
	}
	slog.Info("podbean authentication successful", slog.Time("expires", cred.ExpirationTime))
	return cred, nil
}
