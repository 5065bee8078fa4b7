package navguard

import (
	"context"
	"testing"

	"github.com/friturisme/friturisme/pkg/identity"
	"github.com/friturisme/friturisme/pkg/session"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name       string
		restored   bool
		hasSession bool
		group      RouteGroup
		onboarded  bool
		want       Decision
	}{
		{"unknown defers", false, true, GroupAuth, true, Stay},
		{"session in auth group, onboarded", true, true, GroupAuth, true, GoToMain},
		{"session in auth group, not onboarded", true, true, GroupAuth, false, GoToOnboarding},
		{"no session outside auth group", true, false, GroupMain, false, GoToAuth},
		{"no session in auth group", true, false, GroupAuth, false, Stay},
		{"session in main group", true, true, GroupMain, true, Stay},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.restored, tc.hasSession, tc.group, tc.onboarded)
			if got != tc.want {
				t.Errorf("Decide() = %s, want %s", got, tc.want)
			}
		})
	}
}

type fakeGate struct {
	onboarded map[string]bool
	calls     int
}

func (g *fakeGate) HasCompletedOnboarding(ctx context.Context, userID string) bool {
	g.calls++
	return g.onboarded[userID]
}

type fakeNavigator struct {
	group        RouteGroup
	atOnboarding bool
	replaced     []Decision
}

func (n *fakeNavigator) CurrentGroup() RouteGroup {
	return n.group
}

func (n *fakeNavigator) AtOnboarding() bool {
	return n.atOnboarding
}

func (n *fakeNavigator) Replace(decision Decision) {
	n.replaced = append(n.replaced, decision)
	switch decision {
	case GoToAuth:
		n.group, n.atOnboarding = GroupAuth, false
	case GoToOnboarding:
		n.group, n.atOnboarding = GroupAuth, true
	case GoToMain:
		n.group, n.atOnboarding = GroupMain, false
	}
}

func startedStore(t *testing.T) (*session.Store, *identity.MockProvider) {
	t.Helper()
	mock := identity.NewMockProvider()
	store := session.NewStore(mock)
	if err := store.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(store.Close)
	return store, mock
}

func TestGuardRedirectsToMainWhenOnboarded(t *testing.T) {
	store, mock := startedStore(t)
	gate := &fakeGate{onboarded: map[string]bool{"user-1": true}}
	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, gate, nav)

	mock.EmitSessionChange(&identity.Session{AccessToken: "at", RefreshToken: "rt",
		User: identity.UserIdentity{ID: "user-1"}})

	decision := guard.Evaluate(context.Background())
	if decision != GoToMain {
		t.Fatalf("decision = %s, want go-to-main", decision)
	}
	if nav.group != GroupMain {
		t.Error("navigator did not switch to the main group")
	}
}

func TestGuardRedirectsToOnboarding(t *testing.T) {
	store, mock := startedStore(t)
	gate := &fakeGate{onboarded: map[string]bool{}}
	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, gate, nav)

	mock.EmitSessionChange(&identity.Session{AccessToken: "at", RefreshToken: "rt",
		User: identity.UserIdentity{ID: "user-1"}})

	if decision := guard.Evaluate(context.Background()); decision != GoToOnboarding {
		t.Fatalf("decision = %s, want go-to-onboarding", decision)
	}
}

func TestGuardRedirectsToAuthWithoutSession(t *testing.T) {
	store, _ := startedStore(t)
	nav := &fakeNavigator{group: GroupMain}
	guard := NewGuard(store, &fakeGate{}, nav)

	if decision := guard.Evaluate(context.Background()); decision != GoToAuth {
		t.Fatalf("decision = %s, want go-to-auth", decision)
	}
	if nav.group != GroupAuth {
		t.Error("navigator did not switch to the auth group")
	}
}

func TestGuardStaysWithoutSessionInAuthGroup(t *testing.T) {
	store, _ := startedStore(t)
	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, &fakeGate{}, nav)

	if decision := guard.Evaluate(context.Background()); decision != Stay {
		t.Fatalf("decision = %s, want stay", decision)
	}
	if len(nav.replaced) != 0 {
		t.Error("navigator was driven on a stay decision")
	}
}

func TestGuardDefersUntilRestored(t *testing.T) {
	mock := identity.NewMockProvider()
	store := session.NewStore(mock)
	// Start deliberately not called: restoration has not completed
	nav := &fakeNavigator{group: GroupMain}
	gate := &fakeGate{}
	guard := NewGuard(store, gate, nav)

	if decision := guard.Evaluate(context.Background()); decision != Stay {
		t.Fatalf("decision = %s, want stay while unknown", decision)
	}
	if gate.calls != 0 {
		t.Error("onboarding gate consulted while session state is unknown")
	}
}

func TestGuardIdempotentAfterRedirect(t *testing.T) {
	store, mock := startedStore(t)
	gate := &fakeGate{onboarded: map[string]bool{"user-1": true}}
	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, gate, nav)

	mock.EmitSessionChange(&identity.Session{AccessToken: "at", RefreshToken: "rt",
		User: identity.UserIdentity{ID: "user-1"}})

	if decision := guard.Evaluate(context.Background()); decision != GoToMain {
		t.Fatalf("first decision = %s, want go-to-main", decision)
	}
	if decision := guard.Evaluate(context.Background()); decision != Stay {
		t.Fatalf("second decision = %s, want stay", decision)
	}
}

func TestGuardStaysOnOnboardingScreen(t *testing.T) {
	store, mock := startedStore(t)
	gate := &fakeGate{onboarded: map[string]bool{}}
	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, gate, nav)

	mock.EmitSessionChange(&identity.Session{AccessToken: "at", RefreshToken: "rt",
		User: identity.UserIdentity{ID: "user-1"}})

	if decision := guard.Evaluate(context.Background()); decision != GoToOnboarding {
		t.Fatalf("first decision = %s, want go-to-onboarding", decision)
	}
	// the onboarding screen is itself in the auth group; being sent
	// there again would go nowhere
	if decision := guard.Evaluate(context.Background()); decision != Stay {
		t.Fatalf("second decision = %s, want stay", decision)
	}
	if len(nav.replaced) != 1 {
		t.Errorf("navigator driven %d times, want once", len(nav.replaced))
	}
}

func TestGuardChecksOnboardingFreshEachTime(t *testing.T) {
	store, mock := startedStore(t)
	gate := &fakeGate{onboarded: map[string]bool{}}
	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, gate, nav)

	mock.EmitSessionChange(&identity.Session{AccessToken: "at", RefreshToken: "rt",
		User: identity.UserIdentity{ID: "user-1"}})

	if decision := guard.Evaluate(context.Background()); decision != GoToOnboarding {
		t.Fatalf("decision = %s, want go-to-onboarding", decision)
	}

	// the user picks their snacks; the next evaluation from the auth
	// group must observe it immediately
	gate.onboarded["user-1"] = true
	nav.group = GroupAuth

	if decision := guard.Evaluate(context.Background()); decision != GoToMain {
		t.Fatalf("decision = %s, want go-to-main after onboarding", decision)
	}
	if gate.calls != 2 {
		t.Errorf("gate consulted %d times, want a fresh check per evaluation", gate.calls)
	}
}

func TestGuardReactsToSessionChanges(t *testing.T) {
	store, mock := startedStore(t)
	gate := &fakeGate{onboarded: map[string]bool{"user-1": true}}
	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, gate, nav)

	guard.Attach(context.Background())
	defer guard.Close()

	mock.EmitSessionChange(&identity.Session{AccessToken: "at", RefreshToken: "rt",
		User: identity.UserIdentity{ID: "user-1"}})

	if nav.group != GroupMain {
		t.Fatal("sign-in notification did not move the user to main")
	}

	mock.EmitSessionChange(nil)
	if nav.group != GroupAuth {
		t.Fatal("sign-out notification did not move the user to auth")
	}
}

func TestSignInRoutesBySnackPreferences(t *testing.T) {
	// the full loop: password sign-in → store publishes → guard decides
	// on the favorite_snacks of the profile
	mock := identity.NewMockProvider()
	mock.Accounts["jef@voorbeeld.be"] = "frietjes"

	store := session.NewStore(mock)
	if err := store.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	snacks := map[string][]string{
		"user-jef@voorbeeld.be": {"kroket"},
	}
	gate := &fakeGate{onboarded: map[string]bool{}}
	for userID, list := range snacks {
		gate.onboarded[userID] = len(list) > 0
	}

	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, gate, nav)
	guard.Attach(context.Background())
	defer guard.Close()

	if _, err := mock.PasswordSignIn(context.Background(), "jef@voorbeeld.be", "frietjes"); err != nil {
		t.Fatal(err)
	}
	if nav.group != GroupMain {
		t.Errorf("user with favorite snacks ended in %q, want main", nav.group)
	}
}
