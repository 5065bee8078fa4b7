// Package navguard decides, on every session or route change, whether
// the user belongs in the auth area, the onboarding step, or the main
// app, and redirects them there.
package navguard

import (
	"context"
	"log/slog"

	"github.com/friturisme/friturisme/pkg/identity"
	"github.com/friturisme/friturisme/pkg/session"
)

// RouteGroup is a named partition of the navigation hierarchy.
type RouteGroup string

const (
	// GroupAuth holds the login and onboarding screens.
	GroupAuth RouteGroup = "auth"
	// GroupMain is the app proper.
	GroupMain RouteGroup = "main"
)

type Decision int

const (
	Stay Decision = iota
	GoToAuth
	GoToOnboarding
	GoToMain
)

func (d Decision) String() string {
	switch d {
	case Stay:
		return "stay"
	case GoToAuth:
		return "go-to-auth"
	case GoToOnboarding:
		return "go-to-onboarding"
	case GoToMain:
		return "go-to-main"
	default:
		return "unknown"
	}
}

// Decide is the redirect policy. Pure; onboardingComplete is only
// consulted when a session is present in the auth group. When
// restoration has not completed no decision is made.
func Decide(restored, hasSession bool, group RouteGroup, onboardingComplete bool) Decision {
	if !restored {
		return Stay
	}
	if hasSession && group == GroupAuth {
		if onboardingComplete {
			return GoToMain
		}
		return GoToOnboarding
	}
	if !hasSession && group != GroupAuth {
		return GoToAuth
	}
	return Stay
}

// OnboardingChecker answers the one-time onboarding completion check.
type OnboardingChecker interface {
	HasCompletedOnboarding(ctx context.Context, userID string) bool
}

// Navigator is the navigation surface the guard drives. Replace swaps
// the current route stack without animation so the user cannot navigate
// back into a state inconsistent with their session.
type Navigator interface {
	CurrentGroup() RouteGroup
	// AtOnboarding reports whether the onboarding screen is the current
	// route. The screen lives inside the auth group, so the guard needs
	// this to recognize a redirect that would go nowhere.
	AtOnboarding() bool
	Replace(decision Decision)
}

// Guard re-evaluates the redirect policy whenever the session store
// publishes a change; the app shell additionally calls Evaluate after
// route changes.
type Guard struct {
	store       *session.Store
	gate        OnboardingChecker
	nav         Navigator
	unsubscribe func()
}

func NewGuard(store *session.Store, gate OnboardingChecker, nav Navigator) *Guard {
	return &Guard{store: store, gate: gate, nav: nav}
}

// Attach subscribes to session changes and evaluates once for the
// current state.
func (g *Guard) Attach(ctx context.Context) {
	g.unsubscribe = g.store.Subscribe(func(*identity.Session) {
		g.Evaluate(ctx)
	})
	g.Evaluate(ctx)
}

func (g *Guard) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
}

// Evaluate runs the policy against the current session and route group,
// performing the redirect when the decision is not Stay. The onboarding
// check is made fresh on every evaluation that needs it. Re-evaluating
// with unchanged inputs yields Stay: a redirect either changes the route
// group the next evaluation sees, or lands on the onboarding screen,
// which absorbs repeat redirects to itself.
func (g *Guard) Evaluate(ctx context.Context) Decision {
	current, restored := g.store.Current()
	group := g.nav.CurrentGroup()

	onboarded := false
	if restored && current.Valid() && group == GroupAuth {
		onboarded = g.gate.HasCompletedOnboarding(ctx, current.User.ID)
	}

	decision := Decide(restored, current.Valid(), group, onboarded)
	if decision == GoToOnboarding && g.nav.AtOnboarding() {
		return Stay
	}
	if decision != Stay {
		slog.Debug("navigation redirect", "decision", decision, "group", group)
		g.nav.Replace(decision)
	}
	return decision
}
