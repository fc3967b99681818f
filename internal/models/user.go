package models

// OnboardingStatus gates which screens a user can reach.
type OnboardingStatus string

const (
	StatusOnboarding    OnboardingStatus = "ONBOARDING"
	StatusFutureProfile OnboardingStatus = "FUTURE_PROFILE"
	StatusActive        OnboardingStatus = "ACTIVE"
)

func (s OnboardingStatus) Valid() bool {
	switch s {
	case StatusOnboarding, StatusFutureProfile, StatusActive:
		return true
	}
	return false
}

// Next is the phase that follows s; ACTIVE is terminal.
func (s OnboardingStatus) Next() OnboardingStatus {
	switch s {
	case StatusOnboarding:
		return StatusFutureProfile
	default:
		return StatusActive
	}
}

// User is the identity the remote API hands back on init.
type User struct {
	ID     string           `json:"user_id"`
	Status OnboardingStatus `json:"status"`
}

// StartPath is the first screen of the phase.
func (s OnboardingStatus) StartPath() string {
	switch s {
	case StatusFutureProfile:
		return "/profile/future"
	case StatusActive:
		return "/chat"
	default:
		return "/questionnaire"
	}
}
