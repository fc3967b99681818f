package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/questionnaire"
	"github.com/yoockh/futureself/internal/session"
	"github.com/yoockh/futureself/internal/utils"
)

const (
	DefaultDraftTTL = 24 * time.Hour
	submitLockTTL   = 30 * time.Second
)

// QuestionnaireService drives the onboarding wizard. Each call loads the
// user's draft, applies one action and stores the draft again.
type QuestionnaireService interface {
	Screen(ctx context.Context, sess session.Session) (*questionnaire.Screen, error)
	SetDemographics(ctx context.Context, sess session.Session, p models.DemographicProfile) (*questionnaire.Screen, error)
	ToggleInterest(ctx context.Context, sess session.Session, tag string) (*questionnaire.Screen, error)
	SetValues(ctx context.Context, sess session.Session, v models.ValuesProfile) (*questionnaire.Screen, error)
	SetPersonality(ctx context.Context, sess session.Session, p models.PersonalityProfile) (*questionnaire.Screen, error)
	Next(ctx context.Context, sess session.Session) (*questionnaire.Screen, error)
	Back(ctx context.Context, sess session.Session) (*questionnaire.Screen, error)
	Submit(ctx context.Context, sess session.Session) (*questionnaire.Screen, error)
}

type questionnaireService struct {
	api      questionnaire.Submitter
	store    cache.Store
	ttl      time.Duration
	observer Observer
	log      *logrus.Logger
}

func NewQuestionnaireService(api questionnaire.Submitter, store cache.Store, ttl time.Duration, obs Observer, log *logrus.Logger) QuestionnaireService {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	if log == nil {
		log = logrus.New()
	}
	return &questionnaireService{api: api, store: store, ttl: ttl, observer: observerOrNop(obs), log: log}
}

func (s *questionnaireService) Screen(ctx context.Context, sess session.Session) (*questionnaire.Screen, error) {
	return s.apply(ctx, "QuestionnaireService.Screen", sess, false, func(*questionnaire.Wizard) bool { return false })
}

func (s *questionnaireService) SetDemographics(ctx context.Context, sess session.Session, p models.DemographicProfile) (*questionnaire.Screen, error) {
	return s.apply(ctx, "QuestionnaireService.SetDemographics", sess, true, func(w *questionnaire.Wizard) bool {
		w.SetDemographics(p)
		return false
	})
}

func (s *questionnaireService) ToggleInterest(ctx context.Context, sess session.Session, tag string) (*questionnaire.Screen, error) {
	return s.apply(ctx, "QuestionnaireService.ToggleInterest", sess, true, func(w *questionnaire.Wizard) bool {
		w.ToggleInterest(tag)
		return false
	})
}

func (s *questionnaireService) SetValues(ctx context.Context, sess session.Session, v models.ValuesProfile) (*questionnaire.Screen, error) {
	return s.apply(ctx, "QuestionnaireService.SetValues", sess, true, func(w *questionnaire.Wizard) bool {
		w.SetValues(v)
		return false
	})
}

func (s *questionnaireService) SetPersonality(ctx context.Context, sess session.Session, p models.PersonalityProfile) (*questionnaire.Screen, error) {
	return s.apply(ctx, "QuestionnaireService.SetPersonality", sess, true, func(w *questionnaire.Wizard) bool {
		w.SetPersonality(p)
		return false
	})
}

func (s *questionnaireService) Next(ctx context.Context, sess session.Session) (*questionnaire.Screen, error) {
	return s.apply(ctx, "QuestionnaireService.Next", sess, true, (*questionnaire.Wizard).Advance)
}

func (s *questionnaireService) Back(ctx context.Context, sess session.Session) (*questionnaire.Screen, error) {
	return s.apply(ctx, "QuestionnaireService.Back", sess, true, (*questionnaire.Wizard).Retreat)
}

func (s *questionnaireService) Submit(ctx context.Context, sess session.Session) (*questionnaire.Screen, error) {
	const op = "QuestionnaireService.Submit"
	start := time.Now()

	userID, ok := sess.CurrentUser()
	if !ok {
		return nil, utils.E(utils.CodeUnauthorized, op, "no current user", nil)
	}
	if closed, err := s.closed(ctx, op, sess); err != nil || closed != nil {
		return closed, err
	}

	lock := "questionnaire:submit:" + userID
	token, acquired, err := s.store.TryLock(ctx, lock, submitLockTTL)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to acquire submit guard", err)
	}
	if !acquired {
		s.observer.RecordAction("questionnaire.submit", OutcomeDuplicate, time.Since(start))
		return nil, utils.E(utils.CodeConflict, op, "submission already in progress", nil)
	}
	defer func() { _ = s.store.Unlock(context.WithoutCancel(ctx), lock, token) }()

	w, err := s.load(ctx, op, userID)
	if err != nil {
		return nil, err
	}

	api := &draftSavingSubmitter{next: s.api, save: func(ctx context.Context) error { return s.save(ctx, op, userID, w) }}
	path, cause := w.Submit(ctx, api, sess)

	outcome := OutcomeOK
	switch {
	case cause != nil:
		outcome = OutcomeFailed
		s.log.WithError(cause).WithField("user_id", userID).Warn("questionnaire submit failed")
	case path == "":
		outcome = OutcomeRejected
	}
	s.observer.RecordAction("questionnaire.submit", outcome, time.Since(start))

	if path != "" {
		_ = s.store.Del(ctx, draftKey(userID))
		screen := w.Screen(false)
		screen.Redirect = path
		return &screen, nil
	}
	if err := s.save(ctx, op, userID, w); err != nil {
		return nil, err
	}
	screen := w.Screen(false)
	return &screen, nil
}

// apply runs one wizard action against the stored draft. mutate reports
// whether the step changed.
func (s *questionnaireService) apply(ctx context.Context, op string, sess session.Session, persist bool, mutate func(*questionnaire.Wizard) bool) (*questionnaire.Screen, error) {
	userID, ok := sess.CurrentUser()
	if !ok {
		return nil, utils.E(utils.CodeUnauthorized, op, "no current user", nil)
	}
	if closed, err := s.closed(ctx, op, sess); err != nil || closed != nil {
		return closed, err
	}

	w, err := s.load(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	changed := mutate(w)
	if persist {
		if err := s.save(ctx, op, userID, w); err != nil {
			return nil, err
		}
	}
	screen := w.Screen(changed)
	return &screen, nil
}

// closed returns the closed screen once the user has left onboarding.
func (s *questionnaireService) closed(ctx context.Context, op string, sess session.Session) (*questionnaire.Screen, error) {
	status, err := sess.OnboardingStatus(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read onboarding status", err)
	}
	if status != models.StatusOnboarding {
		screen := questionnaire.ClosedScreen()
		return &screen, nil
	}
	return nil, nil
}

func (s *questionnaireService) load(ctx context.Context, op, userID string) (*questionnaire.Wizard, error) {
	w := questionnaire.New()
	hit, err := s.store.GetJSON(ctx, draftKey(userID), w)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load draft", err)
	}
	if !hit {
		return questionnaire.New(), nil
	}
	if !w.Step.Valid() {
		w.Step = questionnaire.StepDemographics
	}
	return w, nil
}

func (s *questionnaireService) save(ctx context.Context, op, userID string, w *questionnaire.Wizard) error {
	if err := s.store.SetJSON(ctx, draftKey(userID), w, s.ttl); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to save draft", err)
	}
	return nil
}

func draftKey(userID string) string { return "questionnaire:draft:" + userID }

// draftSavingSubmitter stores the draft, with its submitting flag set,
// before the remote call so concurrent screen reads show the spinner.
type draftSavingSubmitter struct {
	next questionnaire.Submitter
	save func(ctx context.Context) error
}

func (d *draftSavingSubmitter) CreateCurrentProfile(ctx context.Context, userID string, p models.CurrentProfile) (*models.CurrentProfileAck, error) {
	if err := d.save(ctx); err != nil {
		return nil, err
	}
	return d.next.CreateCurrentProfile(ctx, userID, p)
}
