package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/session"
	"github.com/yoockh/futureself/internal/utils"
)

type UserAPI interface {
	InitUser(ctx context.Context, anonymousID string) (*models.User, error)
}

// SessionInfo is returned when a browser starts or resumes a session.
type SessionInfo struct {
	UserID    string                  `json:"user_id"`
	Status    models.OnboardingStatus `json:"status"`
	Token     string                  `json:"token,omitempty"`
	ExpiresIn int64                   `json:"expires_in,omitempty"`
	// Redirect is the screen the user's phase starts on.
	Redirect string `json:"redirect"`
}

type UserService interface {
	Init(ctx context.Context, anonymousID string) (*SessionInfo, error)
	Me(ctx context.Context, sess session.Session) (*SessionInfo, error)
}

type userService struct {
	api      UserAPI
	statuses *session.Store
	tokens   *session.Issuer
	tokenTTL time.Duration
}

func NewUserService(api UserAPI, statuses *session.Store, tokens *session.Issuer, tokenTTL time.Duration) UserService {
	return &userService{api: api, statuses: statuses, tokens: tokens, tokenTTL: tokenTTL}
}

func (s *userService) Init(ctx context.Context, anonymousID string) (*SessionInfo, error) {
	const op = "UserService.Init"

	anonymousID = strings.TrimSpace(anonymousID)
	if anonymousID == "" {
		anonymousID = uuid.NewString()
	}

	u, err := s.api.InitUser(ctx, anonymousID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.ID == "" {
		return nil, utils.E(utils.CodeUnavailable, op, "remote api returned no user", nil)
	}
	status := u.Status
	if !status.Valid() {
		status = models.StatusOnboarding
	}

	// a status already advanced locally wins over a stale remote one
	if cur, ok, err := s.statuses.Status(ctx, u.ID); err == nil && ok && rank(cur) > rank(status) {
		status = cur
	}
	if err := s.statuses.SetStatus(ctx, u.ID, status); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID, status)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return &SessionInfo{
		UserID:    u.ID,
		Status:    status,
		Token:     token,
		ExpiresIn: int64(s.tokenTTL / time.Second),
		Redirect:  status.StartPath(),
	}, nil
}

func (s *userService) Me(ctx context.Context, sess session.Session) (*SessionInfo, error) {
	const op = "UserService.Me"

	userID, ok := sess.CurrentUser()
	if !ok {
		return nil, utils.E(utils.CodeUnauthorized, op, "no current user", nil)
	}
	status, err := sess.OnboardingStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{UserID: userID, Status: status, Redirect: status.StartPath()}, nil
}

func rank(s models.OnboardingStatus) int {
	switch s {
	case models.StatusOnboarding:
		return 1
	case models.StatusFutureProfile:
		return 2
	case models.StatusActive:
		return 3
	}
	return 0
}
