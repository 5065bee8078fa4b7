package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Provider API paths, relative to the base URL.
const (
	pathToken     = "/auth/v1/token"
	pathSignUp    = "/auth/v1/signup"
	pathAuthorize = "/auth/v1/authorize"
	pathUser      = "/auth/v1/user"
	pathLogout    = "/auth/v1/logout"
)

// Config of the identity provider client.
type Config struct {
	BaseURL     string `yaml:"base_url" validate:"required,http_url"`
	APIKey      string `yaml:"api_key" validate:"required"`
	SessionFile string `yaml:"session_file"`
}

type subscriber struct {
	id int
	fn func(*Session)
}

// Client implements Provider against the hosted provider's HTTP API.
type Client struct {
	config      Config
	httpClient  *http.Client
	persistence SessionPersistence

	mu          sync.Mutex
	subscribers []subscriber
	nextSubID   int
}

var _ Provider = (*Client)(nil)

func NewClient(config Config) (*Client, error) {
	persistence, err := NewFileSessionStore(config.SessionFile)
	if err != nil {
		return nil, err
	}
	return NewClientWithPersistence(config, persistence)
}

func NewClientWithPersistence(config Config, persistence SessionPersistence) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid identity config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		persistence: persistence,
	}, nil
}

func (c *Client) AuthorizationURL(provider, redirectTo string, skipRedirect bool) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("oauth provider is required")
	}

	query := url.Values{}
	query.Set("provider", provider)
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}
	authURL := fmt.Sprintf("%s%s?%s", c.config.BaseURL, pathAuthorize, query.Encode())

	if skipRedirect {
		return authURL, nil
	}

	// resolve one hop ourselves instead of letting the browser do it
	noRedirect := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 30 * time.Second,
	}
	req, err := http.NewRequest(http.MethodGet, authURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.config.APIKey)

	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting authorization url: %w", err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("provider returned no authorization url (status %d)", resp.StatusCode)
	}
	return location, nil
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
	User         *userPayload `json:"user"`
}

func (c *Client) PasswordSignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var response tokenResponse
	err := c.postJSON(ctx, pathToken+"?grant_type=password", "", body, &response)
	if err != nil {
		return nil, fmt.Errorf("password sign-in: %w", err)
	}

	session, err := c.sessionFromTokenResponse(&response)
	if err != nil {
		return nil, err
	}
	c.setSession(session)
	return session, nil
}

// signUpResponse is either a full token response (autoconfirm on) or the
// bare user record when email confirmation is pending.
type signUpResponse struct {
	tokenResponse
	ID                 string `json:"id"`
	Email              string `json:"email"`
	ConfirmationSentAt string `json:"confirmation_sent_at"`
}

func (c *Client) PasswordSignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	body := map[string]string{"email": email, "password": password}

	var response signUpResponse
	err := c.postJSON(ctx, pathSignUp, "", body, &response)
	if err != nil {
		return nil, fmt.Errorf("sign-up: %w", err)
	}

	if response.AccessToken == "" {
		slog.Debug("sign-up requires email confirmation", "email", email)
		return &SignUpResult{ConfirmationPending: true}, nil
	}

	session, err := c.sessionFromTokenResponse(&response.tokenResponse)
	if err != nil {
		return nil, err
	}
	c.setSession(session)
	return &SignUpResult{Session: session}, nil
}

func (c *Client) ExchangeSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, fmt.Errorf("token pair is incomplete")
	}

	// the provider's user endpoint both validates the access token and
	// confirms the identity it was issued for
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+pathUser, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validating token pair: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var user userPayload
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding user response: %w", err)
	}

	session := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessTokenExpiry(accessToken),
		User:         UserIdentity{ID: user.ID, Email: user.Email},
	}
	c.setSession(session)
	return session, nil
}

// RefreshSession trades the refresh token of a session for a fresh pair.
func (c *Client) RefreshSession(ctx context.Context, session *Session) (*Session, error) {
	if session == nil || session.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token")
	}

	body := map[string]string{"refresh_token": session.RefreshToken}

	var response tokenResponse
	err := c.postJSON(ctx, pathToken+"?grant_type=refresh_token", "", body, &response)
	if err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}

	refreshed, err := c.sessionFromTokenResponse(&response)
	if err != nil {
		return nil, err
	}
	if refreshed.User.ID == "" {
		refreshed.User = session.User
	}
	c.setSession(refreshed)
	return refreshed, nil
}

func (c *Client) PersistedSession(ctx context.Context) (*Session, error) {
	session, err := c.persistence.Load()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	if !session.Valid() {
		slog.Warn("discarding invalid persisted session")
		c.persistence.Clear()
		return nil, nil
	}

	if session.Expired() {
		slog.Debug("persisted session expired, refreshing", "user_id", session.User.ID)
		refreshed, err := c.RefreshSession(ctx, session)
		if err != nil {
			slog.Warn("unable to refresh persisted session", "error", err)
			c.persistence.Clear()
			return nil, nil
		}
		return refreshed, nil
	}

	return session, nil
}

func (c *Client) OnSessionChange(fn func(*Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	id := c.nextSubID
	c.subscribers = append(c.subscribers, subscriber{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subscribers {
			if sub.id == id {
				c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (c *Client) SignOut(ctx context.Context) error {
	session, _ := c.persistence.Load()
	if session.Valid() {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+pathLogout, nil)
		if err != nil {
			return err
		}
		req.Header.Set("apikey", c.config.APIKey)
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			slog.Warn("sign-out request failed, clearing local session anyway", "error", err)
		} else {
			resp.Body.Close()
		}
	}

	if err := c.persistence.Clear(); err != nil {
		return fmt.Errorf("clearing persisted session: %w", err)
	}
	c.notify(nil)
	return nil
}

func (c *Client) postJSON(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.config.APIKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding provider response: %w", err)
	}
	return nil
}

func (c *Client) sessionFromTokenResponse(response *tokenResponse) (*Session, error) {
	if response.AccessToken == "" || response.RefreshToken == "" {
		return nil, fmt.Errorf("provider returned incomplete token pair")
	}

	session := &Session{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
	}
	if response.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(response.ExpiresIn) * time.Second)
	} else {
		session.ExpiresAt = accessTokenExpiry(response.AccessToken)
	}
	if response.User != nil {
		session.User = UserIdentity{ID: response.User.ID, Email: response.User.Email}
	} else {
		user, err := userFromAccessToken(response.AccessToken)
		if err != nil {
			return nil, err
		}
		session.User = user
	}
	return session, nil
}

// setSession persists the new session and notifies subscribers. Called on
// every authentication event; the session replaces the previous one whole.
func (c *Client) setSession(session *Session) {
	if err := c.persistence.Save(session); err != nil {
		slog.Warn("unable to persist session", "error", err)
	}
	c.notify(session)
}

func (c *Client) notify(session *Session) {
	c.mu.Lock()
	subs := make([]subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.fn(session)
	}
}

// userFromAccessToken decodes the identity claims of the access token.
// The token is not verified locally; the provider is the issuer and the
// token was just received from it over TLS.
func userFromAccessToken(accessToken string) (UserIdentity, error) {
	token, err := jwt.Parse([]byte(accessToken), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return UserIdentity{}, fmt.Errorf("parsing access token: %w", err)
	}

	user := UserIdentity{ID: token.Subject()}
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			user.Email = s
		}
	}
	return user, nil
}

func accessTokenExpiry(accessToken string) time.Time {
	token, err := jwt.Parse([]byte(accessToken), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return time.Time{}
	}
	return token.Expiration()
}
