package questionnaire

import (
	"context"
	"fmt"

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/session"
)

const (
	MsgNoUser       = "未找到用户信息，请返回重试或重新初始化。"
	MsgSubmitFailed = "提交失败，请稍后重试。"

	// FutureProfilePath is where a saved questionnaire leads.
	FutureProfilePath = "/profile/future"
)

// Submitter sends the finished questionnaire to the remote API.
type Submitter interface {
	CreateCurrentProfile(ctx context.Context, userID string, p models.CurrentProfile) (*models.CurrentProfileAck, error)
}

// State is the wizard bookkeeping around the three records.
type State struct {
	Step       Step     `json:"step"`
	Errors     []string `json:"errors"`
	Submitting bool     `json:"submitting"`
}

// Wizard owns the three questionnaire records. Records are replaced
// wholesale on every change; a Wizard is never shared between goroutines.
type Wizard struct {
	State
	Demographics models.DemographicProfile `json:"demographics"`
	Values       models.ValuesProfile      `json:"values"`
	Personality  models.PersonalityProfile `json:"personality"`
	SubmitError  string                    `json:"submit_error,omitempty"`
}

func New() *Wizard {
	return &Wizard{
		Values:      models.DefaultValuesProfile(),
		Personality: models.DefaultPersonalityProfile(),
	}
}

func (w *Wizard) SetDemographics(p models.DemographicProfile) {
	p.Interests = p.Interests.Normalize()
	w.Demographics = p
}

func (w *Wizard) ToggleInterest(tag string) {
	w.Demographics = w.Demographics.WithInterests(w.Demographics.Interests.Toggle(tag))
}

func (w *Wizard) SetValues(v models.ValuesProfile) { w.Values = v }

func (w *Wizard) SetPersonality(p models.PersonalityProfile) { w.Personality = p }

// ValidateStep returns the errors of one step's record; unknown steps have
// none.
func (w *Wizard) ValidateStep(s Step) []string {
	switch s {
	case StepDemographics:
		return ValidateDemographics(w.Demographics)
	case StepValues:
		return ValidateValues(w.Values)
	case StepPersonality:
		return ValidatePersonality(w.Personality)
	default:
		return nil
	}
}

// Advance moves forward when the current step is valid. It reports whether
// the step changed.
func (w *Wizard) Advance() bool {
	if errs := w.ValidateStep(w.Step); len(errs) > 0 {
		w.Errors = errs
		return false
	}
	w.Errors = nil
	if w.Step >= StepPersonality {
		w.Step = StepPersonality
		return false
	}
	w.Step++
	return true
}

// Retreat clears errors and moves back, stopping at the first step.
func (w *Wizard) Retreat() bool {
	w.Errors = nil
	if w.Step <= StepDemographics {
		w.Step = StepDemographics
		return false
	}
	w.Step--
	return true
}

func (w *Wizard) Profile() models.CurrentProfile {
	return models.CurrentProfile{
		Demographics: w.Demographics.WithInterests(w.Demographics.Interests),
		Values:       w.Values,
		Personality:  w.Personality,
	}
}

func (w *Wizard) validateAll() []string {
	var errs []string
	errs = append(errs, ValidateDemographics(w.Demographics)...)
	errs = append(errs, ValidateValues(w.Values)...)
	errs = append(errs, ValidatePersonality(w.Personality)...)
	return errs
}

// Submit validates every step and sends the composite profile. Outcomes are
// recorded on the wizard; the returned path is non-empty only on success.
// A non-nil error is the underlying cause of a failure already surfaced in
// SubmitError.
func (w *Wizard) Submit(ctx context.Context, api Submitter, sess session.Session) (string, error) {
	w.SubmitError = ""

	if errs := w.validateAll(); len(errs) > 0 {
		w.Errors = errs
		return "", nil
	}
	w.Errors = nil

	userID, ok := sess.CurrentUser()
	if !ok {
		w.SubmitError = MsgNoUser
		return "", nil
	}

	w.Submitting = true
	defer func() { w.Submitting = false }()

	ack, err := api.CreateCurrentProfile(ctx, userID, w.Profile())
	if err != nil {
		w.SubmitError = MsgSubmitFailed
		return "", err
	}
	if ack == nil || ack.Status != models.CurrentProfileSaved {
		w.SubmitError = MsgSubmitFailed
		status := ""
		if ack != nil {
			status = ack.Status
		}
		return "", fmt.Errorf("unexpected profile acknowledgment %q", status)
	}

	if err := sess.SetOnboardingStatus(ctx, models.StatusOnboarding.Next()); err != nil {
		w.SubmitError = MsgSubmitFailed
		return "", err
	}
	return FutureProfilePath, nil
}
