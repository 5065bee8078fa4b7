// Package authflow orchestrates the three sign-in flows against the
// identity provider: OAuth via a browser redirect, password sign-in and
// password sign-up.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"unicode/utf8"

	"github.com/segmentio/ksuid"

	"github.com/friturisme/friturisme/pkg/browserauth"
	"github.com/friturisme/friturisme/pkg/identity"
	"github.com/friturisme/friturisme/pkg/redirect"
)

// ErrAttemptInFlight is returned when a sign-in attempt is started while
// another one is still pending.
var ErrAttemptInFlight = errors.New("another sign-in attempt is in flight")

const minPasswordLength = 6

// Broker runs sign-in attempts. At most one attempt is in flight at a
// time; the busy flag is cleared however the attempt ends, including
// cancellation.
type Broker struct {
	provider   identity.Provider
	authorizer browserauth.Authorizer
	busy       atomic.Bool
}

func NewBroker(provider identity.Provider, authorizer browserauth.Authorizer) *Broker {
	return &Broker{
		provider:   provider,
		authorizer: authorizer,
	}
}

// Busy reports whether an attempt is currently in flight.
func (b *Broker) Busy() bool {
	return b.busy.Load()
}

// OAuthSignIn signs in via the named OAuth provider using the system
// browser. Cancellation by the user is a silent no-op outcome, not a
// failure.
func (b *Broker) OAuthSignIn(ctx context.Context, providerName string) (Outcome, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return Outcome{}, ErrAttemptInFlight
	}
	defer b.busy.Store(false)

	log := slog.With("attempt_id", ksuid.New().String(), "flow", "oauth", "provider", providerName)
	log.Info("starting oauth sign-in")

	authURL, err := b.provider.AuthorizationURL(providerName, b.authorizer.ReturnAddress(), true)
	if err != nil {
		log.Error("requesting authorization url failed", "error", err)
		return failed(MsgOAuthFailed, err), nil
	}
	if authURL == "" {
		log.Error("provider returned empty authorization url")
		return failed(MsgOAuthFailed, fmt.Errorf("no authorization url received")), nil
	}

	result := b.authorizer.Authorize(ctx, authURL)
	switch result.Kind {
	case browserauth.Cancelled:
		log.Info("authorization cancelled by user")
		return Outcome{Kind: Cancelled}, nil
	case browserauth.Error:
		log.Error("authorization failed", "error", result.Err)
		return failed(MsgOAuthFailed, result.Err), nil
	}

	tokens, err := redirect.ParseTokens(result.ReturnURL)
	if err != nil {
		log.Error("parsing return url failed", "error", err)
		return failed(MsgOAuthFailed, err), nil
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		log.Error("return url is missing tokens")
		return failed(MsgOAuthFailed, fmt.Errorf("redirect did not carry a complete token pair")), nil
	}

	session, err := b.provider.ExchangeSession(ctx, tokens.AccessToken, tokens.RefreshToken)
	if err != nil {
		log.Error("token exchange rejected", "error", err)
		return failed(MsgOAuthFailed, err), nil
	}

	log.Info("oauth sign-in succeeded", "user_id", session.User.ID)
	return Outcome{Kind: SessionReady, Session: session}, nil
}

// PasswordSignIn signs in with email and password. Validation happens
// before any network call.
func (b *Broker) PasswordSignIn(ctx context.Context, email, password string) (Outcome, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return Outcome{}, ErrAttemptInFlight
	}
	defer b.busy.Store(false)

	if email == "" || password == "" {
		return validationFailed(MsgFillCredentials), nil
	}

	log := slog.With("attempt_id", ksuid.New().String(), "flow", "password")
	log.Info("starting password sign-in")

	session, err := b.provider.PasswordSignIn(ctx, email, password)
	if err != nil {
		log.Error("password sign-in rejected", "error", err)
		return failed(MsgSignInFailed, err), nil
	}

	log.Info("password sign-in succeeded", "user_id", session.User.ID)
	return Outcome{Kind: SessionReady, Session: session}, nil
}

// PasswordSignUp creates a new account. Depending on the provider's
// confirmation policy the outcome is either a ready session or
// confirmation-pending.
func (b *Broker) PasswordSignUp(ctx context.Context, email, password string) (Outcome, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return Outcome{}, ErrAttemptInFlight
	}
	defer b.busy.Store(false)

	if email == "" || password == "" {
		return validationFailed(MsgFillCredentials), nil
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return validationFailed(MsgPasswordTooShort), nil
	}

	log := slog.With("attempt_id", ksuid.New().String(), "flow", "signup")
	log.Info("starting sign-up")

	result, err := b.provider.PasswordSignUp(ctx, email, password)
	if err != nil {
		log.Error("sign-up rejected", "error", err)
		return failed(MsgSignUpFailed, err), nil
	}

	if result.ConfirmationPending {
		log.Info("sign-up pending email confirmation")
		return Outcome{Kind: ConfirmationPending}, nil
	}

	log.Info("sign-up succeeded", "user_id", result.Session.User.ID)
	return Outcome{Kind: SessionReady, Session: result.Session}, nil
}

func failed(message string, cause error) Outcome {
	return Outcome{Kind: Failed, Failure: &Failure{Message: message, cause: cause}}
}

func validationFailed(message string) Outcome {
	return Outcome{Kind: Failed, Failure: &Failure{Message: message, Validation: true}}
}
