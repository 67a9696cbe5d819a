package adapter

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// TokenRefresher obtains a fresh bearer token, typically by exchanging a
// refresh token (or client credentials) against an OAuth2 token endpoint.
// It returns an *oauth2.Token like golang.org/x/oauth2.TokenSource does, but
// its method takes a context and has a different name, so an oauth2 token
// source is plugged in by wrapping its Token method in a TokenRefresherFunc.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) (*oauth2.Token, error)
}

// TokenRefresherFunc adapts a plain function to TokenRefresher.
type TokenRefresherFunc func(ctx context.Context) (*oauth2.Token, error)

func (f TokenRefresherFunc) RefreshToken(ctx context.Context) (*oauth2.Token, error) {
	return f(ctx)
}

// RefreshingHeaderTokenAuthorizing authorizes every request with a cached
// bearer token, transparently refreshing it via Refresher once it expires.
// Concurrent requests that all observe an expired token share a single
// in-flight refresh call rather than each triggering their own (spec.md
// §4.4 "at most one concurrent refresh"), coordinated with
// golang.org/x/sync/singleflight.
type RefreshingHeaderTokenAuthorizing struct {
	Refresher TokenRefresher
	Header    string

	mu      sync.RWMutex
	current *oauth2.Token
	group   singleflight.Group
}

func (a *RefreshingHeaderTokenAuthorizing) Adapt(req *http.Request, next RequestFactory) (*http.Response, error) {
	tok, err := a.token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("adapter: refresh token: %w", err)
	}
	header := a.Header
	if header == "" {
		header = "Authorization"
	}
	req.Header.Set(header, "Bearer "+tok.AccessToken)
	return next.Do(req)
}

// token returns a valid token, refreshing it if necessary. Only one
// refresh runs at a time across all callers racing on an expired token.
func (a *RefreshingHeaderTokenAuthorizing) token(ctx context.Context) (*oauth2.Token, error) {
	if tok := a.cached(); usable(tok) {
		return tok, nil
	}

	v, err, _ := a.group.Do("refresh", func() (any, error) {
		if tok := a.cached(); usable(tok) {
			return tok, nil
		}
		fresh, err := a.Refresher.RefreshToken(ctx)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.current = fresh
		a.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// usable reports whether tok has an access token and has not yet reached
// its Expiry; a zero Expiry never expires.
func usable(tok *oauth2.Token) bool {
	return tok != nil && tok.AccessToken != "" && (tok.Expiry.IsZero() || time.Now().Before(tok.Expiry))
}

func (a *RefreshingHeaderTokenAuthorizing) cached() *oauth2.Token {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}
