package graph

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenProvider acquires bearer tokens for the Graph API via the client
// credentials grant. The underlying oauth2 token source caches the current
// token and only goes back to the identity provider once it expires, so every
// Acquire call is silent-cache-first.
type TokenProvider struct {
	src oauth2.TokenSource
}

func NewTokenProvider(tenantID, clientID, clientSecret string) *TokenProvider {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return &TokenProvider{src: cfg.TokenSource(context.Background())}
}

// newTokenProviderForTest builds a provider against a non-default token URL.
func newTokenProviderForTest(tokenURL, clientID, clientSecret string) *TokenProvider {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return &TokenProvider{src: cfg.TokenSource(context.Background())}
}

// Acquire returns a valid access token. The token value must never be logged.
func (p *TokenProvider) Acquire(ctx context.Context) (string, error) {
	token, err := p.src.Token()
	if err != nil {
		return "", &AuthError{Err: err}
	}
	return token.AccessToken, nil
}
