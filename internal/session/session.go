// Package session is the per-user capability screens use instead of a
// global store: who the current user is and which onboarding phase they
// are in.
package session

import (
	"context"
	"time"

	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/utils"
)

type Session interface {
	CurrentUser() (userID string, ok bool)
	OnboardingStatus(ctx context.Context) (models.OnboardingStatus, error)
	SetOnboardingStatus(ctx context.Context, status models.OnboardingStatus) error
}

const DefaultStatusTTL = 30 * 24 * time.Hour

// Store keeps onboarding status per user in the cache.
type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStore(c cache.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &Store{cache: c, ttl: ttl}
}

// For binds the store to one user. fallback is reported while the store has
// no status for the user, typically the status claim of the bearer token.
func (s *Store) For(userID string, fallback models.OnboardingStatus) Session {
	return &userSession{store: s, userID: userID, fallback: fallback}
}

func (s *Store) Status(ctx context.Context, userID string) (models.OnboardingStatus, bool, error) {
	const op = "session.Store.Status"

	if userID == "" {
		return "", false, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	var st models.OnboardingStatus
	hit, err := s.cache.GetJSON(ctx, statusKey(userID), &st)
	if err != nil {
		return "", false, utils.E(utils.CodeUnavailable, op, "failed to read status", err)
	}
	if !hit || !st.Valid() {
		return "", false, nil
	}
	return st, true, nil
}

func (s *Store) SetStatus(ctx context.Context, userID string, status models.OnboardingStatus) error {
	const op = "session.Store.SetStatus"

	if userID == "" || !status.Valid() {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and a known status are required", nil)
	}
	if err := s.cache.SetJSON(ctx, statusKey(userID), status, s.ttl); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to store status", err)
	}
	return nil
}

// StatusKeyPrefix prefixes the cache key of every stored status.
const StatusKeyPrefix = "session:status:"

func statusKey(userID string) string { return StatusKeyPrefix + userID }

type userSession struct {
	store    *Store
	userID   string
	fallback models.OnboardingStatus
}

func (u *userSession) CurrentUser() (string, bool) {
	return u.userID, u.userID != ""
}

func (u *userSession) OnboardingStatus(ctx context.Context) (models.OnboardingStatus, error) {
	if u.userID == "" {
		return "", utils.E(utils.CodeUnauthorized, "session.OnboardingStatus", "no current user", nil)
	}
	st, ok, err := u.store.Status(ctx, u.userID)
	if err != nil {
		return "", err
	}
	if ok {
		return st, nil
	}
	if u.fallback.Valid() {
		return u.fallback, nil
	}
	return models.StatusOnboarding, nil
}

func (u *userSession) SetOnboardingStatus(ctx context.Context, status models.OnboardingStatus) error {
	if u.userID == "" {
		return utils.E(utils.CodeUnauthorized, "session.SetOnboardingStatus", "no current user", nil)
	}
	return u.store.SetStatus(ctx, u.userID, status)
}
