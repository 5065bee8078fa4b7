package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/friturisme/friturisme/pkg/authflow"
	"github.com/friturisme/friturisme/pkg/browserauth"
	"github.com/friturisme/friturisme/pkg/identity"
	"github.com/friturisme/friturisme/pkg/navguard"
	"github.com/friturisme/friturisme/pkg/profile"
	"github.com/friturisme/friturisme/pkg/session"
)

// app wires the auth core together the way the mobile shell does:
// provider → session store → guard, with the terminal playing the role
// of the navigation stack.
type app struct {
	config   *Config
	provider *identity.Client
	store    *session.Store
	profiles *profile.Client
	gate     *profile.Gate
	broker   *authflow.Broker
	nav      *terminalNavigator
	guard    *navguard.Guard
}

func newApp(ctx context.Context) (*app, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	provider, err := identity.NewClient(config.IdentityConfig())
	if err != nil {
		return nil, err
	}

	store := session.NewStore(provider)

	profiles, err := profile.NewClient(config.ProfileConfig(), func() string {
		current, _ := store.Current()
		if !current.Valid() {
			return ""
		}
		return current.AccessToken
	})
	if err != nil {
		return nil, err
	}

	authorizer := browserauth.NewLoopbackAuthorizer(config.CallbackPort)

	a := &app{
		config:   config,
		provider: provider,
		store:    store,
		profiles: profiles,
		gate:     profile.NewGate(profiles),
		broker:   authflow.NewBroker(provider, authorizer),
		nav:      newTerminalNavigator(),
	}
	a.guard = navguard.NewGuard(store, a.gate, a.nav)

	if err := store.Start(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	a.guard.Close()
	a.store.Close()
}

// navigate re-runs the guard until it settles on Stay, then renders the
// area the user ended up in.
func (a *app) navigate(ctx context.Context) {
	for a.guard.Evaluate(ctx) != navguard.Stay {
	}
	a.nav.Render()
}

// terminalNavigator is the CLI stand-in for the app's navigation stack.
// Replace swaps the current area; there is no back stack to return to.
type terminalNavigator struct {
	mu     sync.Mutex
	group  navguard.RouteGroup
	screen string
}

func newTerminalNavigator() *terminalNavigator {
	return &terminalNavigator{group: navguard.GroupAuth, screen: "login"}
}

func (n *terminalNavigator) CurrentGroup() navguard.RouteGroup {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.group
}

func (n *terminalNavigator) AtOnboarding() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.screen == "onboarding"
}

func (n *terminalNavigator) Replace(decision navguard.Decision) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch decision {
	case navguard.GoToAuth:
		n.group, n.screen = navguard.GroupAuth, "login"
	case navguard.GoToOnboarding:
		n.group, n.screen = navguard.GroupAuth, "onboarding"
	case navguard.GoToMain:
		n.group, n.screen = navguard.GroupMain, "tabs"
	}
}

// EnterMain points the navigator at the main area, as if the user opened
// the app on a protected screen. The guard decides whether they may stay.
func (n *terminalNavigator) EnterMain() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.group, n.screen = navguard.GroupMain, "tabs"
}

func (n *terminalNavigator) Render() {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.screen {
	case "login":
		fmt.Println("🍟 FRITURISME — log in met 'friturisme login'")
	case "onboarding":
		fmt.Println("🍟 Kies uw favoriete snacks met 'friturisme snacks <snack>...' om verder te gaan")
	case "tabs":
		fmt.Println("🍟 Welkom terug. Alle frituren wachten op u.")
	}
}
