// Package identity is the client of the hosted identity provider.
//
// The provider owns accounts, credentials and token issuance; this
// package only acquires and holds sessions on its behalf. The Provider
// interface is the complete surface the rest of the app is allowed to
// touch; Client implements it against the provider's HTTP API.
package identity

import (
	"context"
	"time"
)

// UserIdentity is the stable identity issued by the provider.
// Immutable once issued.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated identity plus the token pair proving it.
// A session is valid only when both tokens are non-empty and come from
// the same authentication event.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserIdentity `json:"user"`
}

func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}

func (s *Session) Expired() bool {
	return s != nil && !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// SignUpResult distinguishes the two successful sign-up outcomes: a
// session when the provider authenticated the new account immediately,
// or ConfirmationPending when an email confirmation must happen first.
type SignUpResult struct {
	Session             *Session
	ConfirmationPending bool
}

// Provider is the identity-provider contract consumed by the auth flows
// and the session store.
type Provider interface {
	// AuthorizationURL returns the URL to open in a browsing context to
	// authenticate with the named OAuth provider. The provider redirects
	// back to redirectTo with tokens in the URL. With skipRedirect the
	// URL is returned unresolved for the browser to follow.
	AuthorizationURL(provider, redirectTo string, skipRedirect bool) (string, error)

	// ExchangeSession validates a token pair recovered from a redirect
	// URL and establishes a session from it.
	ExchangeSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)

	PasswordSignIn(ctx context.Context, email, password string) (*Session, error)
	PasswordSignUp(ctx context.Context, email, password string) (*SignUpResult, error)

	// PersistedSession restores the session persisted by a previous run,
	// refreshing it when expired. Returns nil when none exists.
	PersistedSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a callback fired on every session change
	// (sign-in, sign-out, refresh), in emission order. The returned
	// function unsubscribes.
	OnSessionChange(fn func(*Session)) (unsubscribe func())

	SignOut(ctx context.Context) error
}
