// Package redirect extracts session tokens from OAuth redirect URLs.
//
// Hosted identity providers return tokens in the URL fragment
// (implicit grant); some relays move them into the query string.
// The fragment always wins when present.
package redirect

import (
	"fmt"
	"net/url"
)

// Tokens is the token pair carried by a redirect URL. Either field may be
// empty; the caller decides whether a missing token fails the exchange.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// ParseTokens reads access_token and refresh_token from the redirect URL.
// The fragment is checked first; the query string is consulted only when
// no fragment exists.
func ParseTokens(rawURL string) (Tokens, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Tokens{}, fmt.Errorf("parsing redirect url: %w", err)
	}

	raw := u.Fragment
	if raw == "" {
		raw = u.RawQuery
	}

	params, err := url.ParseQuery(raw)
	if err != nil {
		return Tokens{}, fmt.Errorf("parsing redirect parameters: %w", err)
	}

	return Tokens{
		AccessToken:  params.Get("access_token"),
		RefreshToken: params.Get("refresh_token"),
	}, nil
}
