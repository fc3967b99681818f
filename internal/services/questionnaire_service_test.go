package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/questionnaire"
	"github.com/yoockh/futureself/internal/session"
)

type fakeSubmitter struct {
	ack   *models.CurrentProfileAck
	err   error
	calls int
	// draft as seen by the store while the remote call is in flight
	during *questionnaire.Wizard
	store  cache.Cache
	userID string
}

func (f *fakeSubmitter) CreateCurrentProfile(ctx context.Context, userID string, _ models.CurrentProfile) (*models.CurrentProfileAck, error) {
	f.calls++
	if f.store != nil {
		w := questionnaire.New()
		if hit, _ := f.store.GetJSON(ctx, draftKey(userID), w); hit {
			f.during = w
		}
	}
	return f.ack, f.err
}

func quietLogger() *logrus.Logger {
	l, _ := test.NewNullLogger()
	return l
}

func validDemo() models.DemographicProfile {
	return models.DemographicProfile{
		Name:           "林一",
		Age:            30,
		Gender:         models.GenderOther,
		Status:         models.WorkStatusEmployed,
		Field:          "数据科学",
		Interests:      models.Interests{"数据分析"},
		Location:       "杭州",
		FutureLocation: "深圳",
	}
}

type qFixture struct {
	svc   QuestionnaireService
	mem   *cache.MemoryCache
	store *session.Store
	api   *fakeSubmitter
}

func newQFixture(api *fakeSubmitter) qFixture {
	mem := cache.NewMemoryCache(0)
	api.store = mem
	return qFixture{
		svc:   NewQuestionnaireService(api, mem, time.Hour, nil, quietLogger()),
		mem:   mem,
		store: session.NewStore(mem, 0),
		api:   api,
	}
}

func TestQuestionnaireDraftSurvivesRequests(t *testing.T) {
	ctx := context.Background()
	f := newQFixture(&fakeSubmitter{})
	sess := f.store.For("u-1", models.StatusOnboarding)

	s, err := f.svc.Screen(ctx, sess)
	require.NoError(t, err)
	assert.False(t, s.Closed)
	assert.Equal(t, questionnaire.StepDemographics, s.Step)

	_, err = f.svc.SetDemographics(ctx, sess, validDemo())
	require.NoError(t, err)
	s, err = f.svc.ToggleInterest(ctx, sess, "产品设计")
	require.NoError(t, err)
	assert.Equal(t, models.Interests{"数据分析", "产品设计"}, s.Demographics.Interests)

	s, err = f.svc.Next(ctx, sess)
	require.NoError(t, err)
	assert.True(t, s.ScrollTop)
	assert.Equal(t, questionnaire.StepValues, s.Step)

	s, err = f.svc.Screen(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.StepValues, s.Step, "step persisted")
	assert.False(t, s.ScrollTop)

	s, err = f.svc.Back(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.StepDemographics, s.Step)
}

func TestQuestionnaireNextWithErrorsStays(t *testing.T) {
	ctx := context.Background()
	f := newQFixture(&fakeSubmitter{})
	sess := f.store.For("u-1", models.StatusOnboarding)

	s, err := f.svc.Next(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.StepDemographics, s.Step)
	assert.Len(t, s.Errors, 8)
	assert.False(t, s.ScrollTop)
}

func TestQuestionnaireClosedAfterOnboarding(t *testing.T) {
	ctx := context.Background()
	f := newQFixture(&fakeSubmitter{})
	sess := f.store.For("u-1", models.StatusActive)

	s, err := f.svc.SetValues(ctx, sess, models.DefaultValuesProfile())
	require.NoError(t, err)
	assert.True(t, s.Closed)
	assert.Equal(t, questionnaire.ClosedTitle, s.ClosedTitle)

	hit, _ := f.mem.GetJSON(ctx, draftKey("u-1"), questionnaire.New())
	assert.False(t, hit, "closed wizard writes no draft")
}

func TestQuestionnaireSubmitSuccess(t *testing.T) {
	ctx := context.Background()
	f := newQFixture(&fakeSubmitter{ack: &models.CurrentProfileAck{Status: models.CurrentProfileSaved}})
	sess := f.store.For("u-1", models.StatusOnboarding)

	_, err := f.svc.SetDemographics(ctx, sess, validDemo())
	require.NoError(t, err)

	s, err := f.svc.Submit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.FutureProfilePath, s.Redirect)
	assert.Equal(t, 1, f.api.calls)
	require.NotNil(t, f.api.during)
	assert.True(t, f.api.during.Submitting, "draft shows the in-flight submission")

	st, err := sess.OnboardingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFutureProfile, st)

	hit, _ := f.mem.GetJSON(ctx, draftKey("u-1"), questionnaire.New())
	assert.False(t, hit, "draft cleared after success")
}

func TestQuestionnaireSubmitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	f := newQFixture(&fakeSubmitter{err: errors.New("502")})
	sess := f.store.For("u-1", models.StatusOnboarding)
	_, err := f.svc.SetDemographics(ctx, sess, validDemo())
	require.NoError(t, err)

	s, err := f.svc.Submit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.MsgSubmitFailed, s.SubmitError)
	assert.False(t, s.Submitting)
	assert.Empty(t, s.Redirect)

	w := questionnaire.New()
	hit, _ := f.mem.GetJSON(ctx, draftKey("u-1"), w)
	require.True(t, hit)
	assert.Equal(t, "林一", w.Demographics.Name)
	assert.False(t, w.Submitting)
}

func TestQuestionnaireDuplicateSubmitRejected(t *testing.T) {
	ctx := context.Background()
	f := newQFixture(&fakeSubmitter{})
	sess := f.store.For("u-1", models.StatusOnboarding)

	_, ok, err := f.mem.TryLock(ctx, "questionnaire:submit:u-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Submit(ctx, sess)
	require.Error(t, err)
	assert.Zero(t, f.api.calls)
}
