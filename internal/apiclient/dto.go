package apiclient

import "github.com/yoockh/futureself/internal/models"

type initUserRequest struct {
	AnonymousUserID string `json:"anonymous_user_id"`
}

// demographicsDTO is the wire shape of the first step; the remote API keeps
// interests as one comma-delimited string.
type demographicsDTO struct {
	Name           string            `json:"name"`
	Age            int               `json:"age"`
	Gender         models.Gender     `json:"gender"`
	Status         models.WorkStatus `json:"status"`
	Field          string            `json:"field"`
	Interests      string            `json:"interests"`
	Location       string            `json:"location"`
	FutureLocation string            `json:"future_location"`
}

type currentProfileDTO struct {
	Demographics demographicsDTO           `json:"demo_data"`
	Values       models.ValuesProfile      `json:"vals_data"`
	Personality  models.PersonalityProfile `json:"bfi_data"`
}

func toCurrentProfileDTO(p models.CurrentProfile) currentProfileDTO {
	d := p.Demographics
	return currentProfileDTO{
		Demographics: demographicsDTO{
			Name:           d.Name,
			Age:            d.Age,
			Gender:         d.Gender,
			Status:         d.Status,
			Field:          d.Field,
			Interests:      d.Interests.Normalize().String(),
			Location:       d.Location,
			FutureLocation: d.FutureLocation,
		},
		Values:      p.Values,
		Personality: p.Personality,
	}
}

type futureProfilesRequest struct {
	Profiles []models.FutureProfileItem `json:"profiles"`
}

type generateReportRequest struct {
	FutureProfileID string `json:"future_profile_id,omitempty"`
	ThreadID        string `json:"thread_id,omitempty"`
}
