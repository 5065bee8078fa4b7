package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MockProvider is the in-memory Provider used in tests. Accounts maps
// email to password; TokenPairs maps access tokens to the refresh token
// issued with them.
type MockProvider struct {
	mu          sync.Mutex
	subscribers []subscriber
	nextSubID   int

	AuthURL              string
	AuthorizationErr     error
	Accounts             map[string]string
	TokenPairs           map[string]string
	TokenUsers           map[string]UserIdentity
	ConfirmationRequired bool
	Persisted            *Session
	PersistedErr         error
	SignInErr            error
	SignUpErr            error

	PasswordSignInCalls int
	PasswordSignUpCalls int
	ExchangeCalls       int
	SignOutCalls        int
}

var _ Provider = (*MockProvider)(nil)

func NewMockProvider() *MockProvider {
	return &MockProvider{
		AuthURL:    "https://provider.example/authorize",
		Accounts:   make(map[string]string),
		TokenPairs: make(map[string]string),
		TokenUsers: make(map[string]UserIdentity),
	}
}

func (m *MockProvider) AuthorizationURL(provider, redirectTo string, skipRedirect bool) (string, error) {
	if m.AuthorizationErr != nil {
		return "", m.AuthorizationErr
	}
	return fmt.Sprintf("%s?provider=%s&redirect_to=%s", m.AuthURL, provider, redirectTo), nil
}

func (m *MockProvider) ExchangeSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	m.mu.Lock()
	m.ExchangeCalls++
	refresh, ok := m.TokenPairs[accessToken]
	user := m.TokenUsers[accessToken]
	m.mu.Unlock()

	if !ok || refresh != refreshToken {
		return nil, errors.New("token pair rejected")
	}

	session := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}
	m.setSession(session)
	return session, nil
}

func (m *MockProvider) PasswordSignIn(ctx context.Context, email, password string) (*Session, error) {
	m.mu.Lock()
	m.PasswordSignInCalls++
	stored, ok := m.Accounts[email]
	m.mu.Unlock()

	if m.SignInErr != nil {
		return nil, m.SignInErr
	}
	if !ok || stored != password {
		return nil, errors.New("invalid credentials")
	}

	session := &Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		User:         UserIdentity{ID: "user-" + email, Email: email},
	}
	m.setSession(session)
	return session, nil
}

func (m *MockProvider) PasswordSignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	m.mu.Lock()
	m.PasswordSignUpCalls++
	_, exists := m.Accounts[email]
	m.mu.Unlock()

	if m.SignUpErr != nil {
		return nil, m.SignUpErr
	}
	if exists {
		return nil, errors.New("account already exists")
	}

	m.mu.Lock()
	m.Accounts[email] = password
	m.mu.Unlock()

	if m.ConfirmationRequired {
		return &SignUpResult{ConfirmationPending: true}, nil
	}

	session := &Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		User:         UserIdentity{ID: "user-" + email, Email: email},
	}
	m.setSession(session)
	return &SignUpResult{Session: session}, nil
}

func (m *MockProvider) PersistedSession(ctx context.Context) (*Session, error) {
	if m.PersistedErr != nil {
		return nil, m.PersistedErr
	}
	return m.Persisted, nil
}

func (m *MockProvider) OnSessionChange(fn func(*Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subscribers {
			if sub.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (m *MockProvider) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.SignOutCalls++
	m.Persisted = nil
	m.mu.Unlock()

	m.EmitSessionChange(nil)
	return nil
}

// EmitSessionChange pushes a provider-side change to subscribers, e.g. a
// transparent token refresh.
func (m *MockProvider) EmitSessionChange(session *Session) {
	m.mu.Lock()
	subs := make([]subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fn(session)
	}
}

func (m *MockProvider) setSession(session *Session) {
	m.mu.Lock()
	m.Persisted = session
	m.mu.Unlock()
	m.EmitSessionChange(session)
}
