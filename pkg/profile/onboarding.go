package profile

import (
	"context"
	"errors"
	"log/slog"
)

// SnackSource answers favorite-snack lookups. Satisfied by *Client.
type SnackSource interface {
	GetFavoriteSnacks(ctx context.Context, userID string) ([]string, error)
}

// Gate answers whether a user has completed onboarding: true iff the
// favorite_snacks sequence is non-empty. The answer is computed fresh on
// every call so the guard observes a just-completed onboarding
// immediately; it is never cached.
type Gate struct {
	source SnackSource
}

func NewGate(source SnackSource) *Gate {
	return &Gate{source: source}
}

// HasCompletedOnboarding fails open toward "not completed": a fetch
// error or a missing row routes the user to onboarding instead of
// blocking navigation.
func (g *Gate) HasCompletedOnboarding(ctx context.Context, userID string) bool {
	snacks, err := g.source.GetFavoriteSnacks(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("onboarding check failed, assuming not completed", "user_id", userID, "error", err)
		}
		return false
	}
	return len(snacks) > 0
}
