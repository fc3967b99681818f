package questionnaire

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/futureself/internal/models"
)

type fakeSession struct {
	userID string
	status models.OnboardingStatus
	setErr error
}

func (f *fakeSession) CurrentUser() (string, bool) { return f.userID, f.userID != "" }

func (f *fakeSession) OnboardingStatus(context.Context) (models.OnboardingStatus, error) {
	return f.status, nil
}

func (f *fakeSession) SetOnboardingStatus(_ context.Context, s models.OnboardingStatus) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.status = s
	return nil
}

type fakeSubmitter struct {
	ack   *models.CurrentProfileAck
	err   error
	calls int
	got   models.CurrentProfile
}

func (f *fakeSubmitter) CreateCurrentProfile(_ context.Context, _ string, p models.CurrentProfile) (*models.CurrentProfileAck, error) {
	f.calls++
	f.got = p
	return f.ack, f.err
}

func filledWizard() *Wizard {
	w := New()
	w.SetDemographics(validDemographics())
	return w
}

func TestAdvanceBlocksOnInvalidStep(t *testing.T) {
	w := New()

	changed := w.Advance()
	assert.False(t, changed)
	assert.Equal(t, StepDemographics, w.Step)
	assert.NotEmpty(t, w.Errors)
}

func TestAdvanceAndRetreatClamp(t *testing.T) {
	w := filledWizard()

	assert.True(t, w.Advance())
	assert.Empty(t, w.Errors)
	assert.Equal(t, StepValues, w.Step)
	assert.True(t, w.Advance())
	assert.Equal(t, StepPersonality, w.Step)
	assert.False(t, w.Advance(), "last step does not advance")
	assert.Equal(t, StepPersonality, w.Step)

	w.Errors = []string{"stale"}
	assert.True(t, w.Retreat())
	assert.Nil(t, w.Errors)
	assert.True(t, w.Retreat())
	assert.False(t, w.Retreat())
	assert.Equal(t, StepDemographics, w.Step)
}

func TestToggleInterestReplacesRecord(t *testing.T) {
	w := New()
	w.SetDemographics(models.DemographicProfile{Interests: models.ParseInterests("产品设计, 数据分析")})
	before := w.Demographics

	w.ToggleInterest("数据分析")
	assert.Equal(t, "产品设计", w.Demographics.Interests.String())
	assert.Equal(t, "产品设计, 数据分析", before.Interests.String(), "previous record is not mutated")

	w.ToggleInterest("心理辅导")
	assert.Equal(t, "产品设计, 心理辅导", w.Demographics.Interests.String())
}

func TestSubmitCollectsErrorsFromAllSteps(t *testing.T) {
	w := filledWizard()
	w.Values.Power = 9
	w.Personality.Openness = 0
	api := &fakeSubmitter{}

	path, err := w.Submit(context.Background(), api, &fakeSession{userID: "u"})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Len(t, w.Errors, 2)
	assert.Zero(t, api.calls)
}

func TestSubmitRequiresUser(t *testing.T) {
	w := filledWizard()
	api := &fakeSubmitter{}

	path, err := w.Submit(context.Background(), api, &fakeSession{})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, MsgNoUser, w.SubmitError)
	assert.Zero(t, api.calls)
}

func TestSubmitSuccessAdvancesStatus(t *testing.T) {
	w := filledWizard()
	sess := &fakeSession{userID: "u-1", status: models.StatusOnboarding}
	api := &fakeSubmitter{ack: &models.CurrentProfileAck{Status: models.CurrentProfileSaved}}

	path, err := w.Submit(context.Background(), api, sess)
	require.NoError(t, err)
	assert.Equal(t, FutureProfilePath, path)
	assert.Equal(t, models.StatusFutureProfile, sess.status)
	assert.Empty(t, w.SubmitError)
	assert.False(t, w.Submitting)
	assert.Equal(t, "产品设计", api.got.Demographics.Interests.String())
}

func TestSubmitFailures(t *testing.T) {
	cases := []struct {
		name string
		api  *fakeSubmitter
		sess *fakeSession
	}{
		{"transport", &fakeSubmitter{err: errors.New("dial")}, &fakeSession{userID: "u"}},
		{"unexpected ack", &fakeSubmitter{ack: &models.CurrentProfileAck{Status: "PENDING"}}, &fakeSession{userID: "u"}},
		{"status store", &fakeSubmitter{ack: &models.CurrentProfileAck{Status: models.CurrentProfileSaved}}, &fakeSession{userID: "u", setErr: errors.New("redis")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := filledWizard()
			path, err := w.Submit(context.Background(), tc.api, tc.sess)
			assert.Error(t, err)
			assert.Empty(t, path)
			assert.Equal(t, MsgSubmitFailed, w.SubmitError)
			assert.False(t, w.Submitting)
		})
	}
}

func TestScreen(t *testing.T) {
	w := filledWizard()
	w.Advance()

	s := w.Screen(true)
	assert.True(t, s.ScrollTop)
	assert.Equal(t, StepValues, s.Step)
	assert.InDelta(t, 66.67, s.Progress, 0.01)
	assert.True(t, s.CanGoBack)
	assert.Equal(t, "next", s.PrimaryAction)
	require.Len(t, s.Steps, StepCount)
	assert.True(t, s.Steps[0].Completed)
	assert.True(t, s.Steps[1].Active)
	assert.Equal(t, "2", s.Steps[1].Label)
	assert.NotNil(t, s.Errors)

	w.Advance()
	assert.Equal(t, "submit", w.Screen(false).PrimaryAction)
}
