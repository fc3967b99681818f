package models

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type WorkStatus string

const (
	WorkStatusStudent    WorkStatus = "STUDENT"
	WorkStatusJobSeeking WorkStatus = "JOB_SEEKING"
	WorkStatusEmployed   WorkStatus = "EMPLOYED"
	WorkStatusFreelancer WorkStatus = "FREELANCER"
	WorkStatusOther      WorkStatus = "OTHER"
)

func (s WorkStatus) Valid() bool {
	switch s {
	case WorkStatusStudent, WorkStatusJobSeeking, WorkStatusEmployed, WorkStatusFreelancer, WorkStatusOther:
		return true
	}
	return false
}

// DemographicProfile is the first questionnaire step.
type DemographicProfile struct {
	Name           string     `json:"name"`
	Age            int        `json:"age"`
	Gender         Gender     `json:"gender"`
	Status         WorkStatus `json:"status"`
	Field          string     `json:"field"`
	Interests      Interests  `json:"interests"`
	Location       string     `json:"location"`
	FutureLocation string     `json:"future_location"`
}

// WithInterests returns a copy of p carrying interests.
func (p DemographicProfile) WithInterests(interests Interests) DemographicProfile {
	p.Interests = interests.Clone()
	return p
}

// ValuesProfile holds the PVQ-10 value dimensions, each scored 1-5.
type ValuesProfile struct {
	SelfDirection int `json:"self_direction"`
	Stimulation   int `json:"stimulation"`
	Hedonism      int `json:"hedonism"`
	Achievement   int `json:"achievement"`
	Power         int `json:"power"`
	Security      int `json:"security"`
	Conformity    int `json:"conformity"`
	Tradition     int `json:"tradition"`
	Benevolence   int `json:"benevolence"`
	Universalism  int `json:"universalism"`
}

// NamedScore pairs a wire field name with its score.
type NamedScore[T int | float64] struct {
	Name  string
	Score T
}

// Scores lists the dimensions in questionnaire order.
func (v ValuesProfile) Scores() []NamedScore[int] {
	return []NamedScore[int]{
		{"self_direction", v.SelfDirection},
		{"stimulation", v.Stimulation},
		{"hedonism", v.Hedonism},
		{"achievement", v.Achievement},
		{"power", v.Power},
		{"security", v.Security},
		{"conformity", v.Conformity},
		{"tradition", v.Tradition},
		{"benevolence", v.Benevolence},
		{"universalism", v.Universalism},
	}
}

// PersonalityProfile holds the BFI big-five traits, each scored 1.0-5.0.
type PersonalityProfile struct {
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Neuroticism       float64 `json:"neuroticism"`
	Openness          float64 `json:"openness"`
}

func (p PersonalityProfile) Scores() []NamedScore[float64] {
	return []NamedScore[float64]{
		{"extraversion", p.Extraversion},
		{"agreeableness", p.Agreeableness},
		{"conscientiousness", p.Conscientiousness},
		{"neuroticism", p.Neuroticism},
		{"openness", p.Openness},
	}
}

func DefaultValuesProfile() ValuesProfile {
	return ValuesProfile{
		SelfDirection: 3,
		Stimulation:   3,
		Hedonism:      3,
		Achievement:   3,
		Power:         3,
		Security:      3,
		Conformity:    3,
		Tradition:     3,
		Benevolence:   3,
		Universalism:  3,
	}
}

func DefaultPersonalityProfile() PersonalityProfile {
	return PersonalityProfile{
		Extraversion:      3,
		Agreeableness:     3,
		Conscientiousness: 3,
		Neuroticism:       3,
		Openness:          3,
	}
}

// CurrentProfile is the composite record submitted at the end of the wizard.
type CurrentProfile struct {
	Demographics DemographicProfile `json:"demo_data"`
	Values       ValuesProfile      `json:"vals_data"`
	Personality  PersonalityProfile `json:"bfi_data"`
}

// CurrentProfileSaved is the acknowledgment the remote API returns when a
// current profile was stored.
const CurrentProfileSaved = "CURRENT_PROFILE_SAVED"

type CurrentProfileAck struct {
	Status string `json:"status"`
}

// FutureProfileItem describes one imagined future self. Its created id is
// the chat thread id.
type FutureProfileItem struct {
	ProfileName     string `json:"profile_name" binding:"required,min=1,max=100"`
	FutureValues    string `json:"future_values" binding:"required,min=10,max=2000"`
	FutureVision    string `json:"future_vision" binding:"required,min=10,max=2000"`
	FutureObstacles string `json:"future_obstacles" binding:"required,min=10,max=2000"`
}

type CreatedFutureProfile struct {
	FutureProfileID string `json:"future_profile_id"`
	ProfileName     string `json:"profile_name"`
}

type FutureProfileResult struct {
	Status          OnboardingStatus       `json:"status"`
	UserID          string                 `json:"user_id"`
	CreatedProfiles []CreatedFutureProfile `json:"created_profiles"`
}
