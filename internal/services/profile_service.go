package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/questionnaire"
	"github.com/yoockh/futureself/internal/session"
	"github.com/yoockh/futureself/internal/utils"
)

const MsgFutureProfileFailed = "创建未来人设失败，请稍后重试。"

type FutureProfileAPI interface {
	CreateFutureProfiles(ctx context.Context, userID string, items []models.FutureProfileItem) (*models.FutureProfileResult, error)
}

// FutureProfileScreen is the outcome of a future profile submission.
type FutureProfileScreen struct {
	Errors      []string                      `json:"errors"`
	SubmitError string                        `json:"submit_error,omitempty"`
	Created     []models.CreatedFutureProfile `json:"created_profiles,omitempty"`
	Redirect    string                        `json:"redirect,omitempty"`
}

type ProfileService interface {
	CreateFuture(ctx context.Context, sess session.Session, items []models.FutureProfileItem) (*FutureProfileScreen, error)
}

type profileService struct {
	api      FutureProfileAPI
	observer Observer
	log      *logrus.Logger
}

func NewProfileService(api FutureProfileAPI, obs Observer, log *logrus.Logger) ProfileService {
	if log == nil {
		log = logrus.New()
	}
	return &profileService{api: api, observer: observerOrNop(obs), log: log}
}

func (s *profileService) CreateFuture(ctx context.Context, sess session.Session, items []models.FutureProfileItem) (*FutureProfileScreen, error) {
	const op = "ProfileService.CreateFuture"
	start := time.Now()

	userID, ok := sess.CurrentUser()
	if !ok {
		return nil, utils.E(utils.CodeUnauthorized, op, "no current user", nil)
	}

	if errs := questionnaire.ValidateFutureProfiles(items); len(errs) > 0 {
		s.observer.RecordAction("profile.future", OutcomeRejected, time.Since(start))
		return &FutureProfileScreen{Errors: errs}, nil
	}

	res, err := s.api.CreateFutureProfiles(ctx, userID, items)
	if err != nil {
		s.observer.RecordAction("profile.future", OutcomeFailed, time.Since(start))
		s.log.WithError(err).WithField("user_id", userID).Warn("future profile creation failed")
		return &FutureProfileScreen{Errors: []string{}, SubmitError: MsgFutureProfileFailed}, nil
	}

	out := &FutureProfileScreen{Errors: []string{}, Created: res.CreatedProfiles}
	if res.Status == models.StatusActive {
		if err := sess.SetOnboardingStatus(ctx, models.StatusActive); err != nil {
			return nil, err
		}
		out.Redirect = models.StatusActive.StartPath()
		if len(res.CreatedProfiles) > 0 {
			out.Redirect += "/" + res.CreatedProfiles[0].FutureProfileID
		}
	}
	s.observer.RecordAction("profile.future", OutcomeOK, time.Since(start))
	return out, nil
}
