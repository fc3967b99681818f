package models

import "time"

type ReportStatus string

const (
	ReportGenerating ReportStatus = "GENERATING"
	ReportReady      ReportStatus = "READY"
)

// ReportTicket is returned when report generation is triggered.
type ReportTicket struct {
	ReportID string       `json:"report_id"`
	Status   ReportStatus `json:"status"`
}

// WOOPContent is the wish/outcome/obstacle/plan body of a report.
type WOOPContent struct {
	Wish     string `json:"wish"`
	Outcome  string `json:"outcome"`
	Obstacle string `json:"obstacle"`
	Plan     string `json:"plan"`
}

type Report struct {
	ReportID  string       `json:"report_id"`
	Status    ReportStatus `json:"status"`
	Content   WOOPContent  `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}
