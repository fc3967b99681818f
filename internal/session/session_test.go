package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/models"
)

func TestSessionStatusFallsBackToTokenClaim(t *testing.T) {
	ctx := context.Background()
	store := NewStore(cache.NewMemoryCache(16), time.Hour)

	s := store.For("u-1", models.StatusActive)
	st, err := s.OnboardingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, st)

	require.NoError(t, s.SetOnboardingStatus(ctx, models.StatusFutureProfile))
	st, err = s.OnboardingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFutureProfile, st)
}

func TestSessionDefaultsToOnboarding(t *testing.T) {
	store := NewStore(cache.NewMemoryCache(16), time.Hour)
	st, err := store.For("u-2", "").OnboardingStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnboarding, st)
}

func TestAnonymousSessionHasNoUser(t *testing.T) {
	store := NewStore(cache.NewMemoryCache(16), time.Hour)
	s := store.For("", "")

	_, ok := s.CurrentUser()
	assert.False(t, ok)
	assert.Error(t, s.SetOnboardingStatus(context.Background(), models.StatusActive))
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	store := NewStore(cache.NewMemoryCache(16), time.Hour)
	assert.Error(t, store.SetStatus(context.Background(), "u-3", "DONE"))
}

func TestIssuerRoundTrip(t *testing.T) {
	iss := NewIssuer("secret", "futureself", "web", time.Hour)

	raw, err := iss.Issue("u-1", models.StatusOnboarding)
	require.NoError(t, err)

	claims, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, models.StatusOnboarding, claims.Status)
}

func TestIssuerRejectsForeignAndExpiredTokens(t *testing.T) {
	iss := NewIssuer("secret", "futureself", "", time.Minute)
	other := NewIssuer("other-secret", "futureself", "", time.Minute)

	raw, err := other.Issue("u-1", models.StatusActive)
	require.NoError(t, err)
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	raw, err = iss.Issue("u-1", models.StatusActive)
	require.NoError(t, err)
	iss.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
