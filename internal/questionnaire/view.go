package questionnaire

import "github.com/yoockh/futureself/internal/models"

const (
	ClosedTitle   = "问卷已完成"
	ClosedMessage = "当前档案问卷仅在新用户入职阶段开放。如果需要更新资料，请联系辅导员或等待后续功能。"
)

type StepInfo struct {
	Label       string `json:"label"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	Completed   bool   `json:"completed"`
}

type Options struct {
	Gender    []Option `json:"gender"`
	Status    []Option `json:"status"`
	Interests []string `json:"interests"`
}

// Screen is what the browser renders for the questionnaire page.
type Screen struct {
	Closed        bool   `json:"closed"`
	ClosedTitle   string `json:"closed_title,omitempty"`
	ClosedMessage string `json:"closed_message,omitempty"`

	Step      Step       `json:"step"`
	StepCount int        `json:"step_count"`
	Progress  float64    `json:"progress"`
	Steps     []StepInfo `json:"steps,omitempty"`

	Demographics models.DemographicProfile `json:"demographics"`
	Values       models.ValuesProfile      `json:"values"`
	Personality  models.PersonalityProfile `json:"personality"`
	Options      Options                   `json:"options"`

	Errors      []string `json:"errors"`
	SubmitError string   `json:"submit_error,omitempty"`
	Submitting  bool     `json:"submitting"`

	CanGoBack     bool   `json:"can_go_back"`
	PrimaryAction string `json:"primary_action"`

	// ScrollTop asks the page to scroll to the top after a step change.
	ScrollTop bool   `json:"scroll_top"`
	Redirect  string `json:"redirect,omitempty"`
}

// ClosedScreen is shown once the user has left the onboarding phase.
func ClosedScreen() Screen {
	return Screen{Closed: true, ClosedTitle: ClosedTitle, ClosedMessage: ClosedMessage, StepCount: StepCount}
}

// Screen renders the wizard. stepChanged marks a transition since the last
// render.
func (w *Wizard) Screen(stepChanged bool) Screen {
	steps := make([]StepInfo, 0, StepCount)
	for i, c := range stepCatalog {
		s := Step(i)
		steps = append(steps, StepInfo{
			Label:       string(rune('1' + i)),
			Title:       c.Title,
			Description: c.Description,
			Active:      s == w.Step,
			Completed:   s < w.Step,
		})
	}

	primary := "next"
	if w.Step == StepPersonality {
		primary = "submit"
	}

	errs := w.Errors
	if errs == nil {
		errs = []string{}
	}

	return Screen{
		Step:         w.Step,
		StepCount:    StepCount,
		Progress:     float64(w.Step+1) / float64(StepCount) * 100,
		Steps:        steps,
		Demographics: w.Demographics,
		Values:       w.Values,
		Personality:  w.Personality,
		Options: Options{
			Gender:    GenderOptions,
			Status:    StatusOptions,
			Interests: InterestOptions,
		},
		Errors:        errs,
		SubmitError:   w.SubmitError,
		Submitting:    w.Submitting,
		CanGoBack:     w.Step > StepDemographics,
		PrimaryAction: primary,
		ScrollTop:     stepChanged,
	}
}
