package services

import (
	"context"
	"time"

	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/utils"
)

const reportTicketTTL = 7 * 24 * time.Hour

// ReportAPI is the slice of the remote client the report screens use.
type ReportAPI interface {
	ReportStatus(ctx context.Context, userID, reportID string) (*models.ReportTicket, error)
	LatestReport(ctx context.Context, userID string) (*models.Report, error)
}

type ReportService interface {
	// Status reports the state of the user's most recently triggered report.
	Status(ctx context.Context, userID string) (*models.ReportTicket, error)
	Latest(ctx context.Context, userID string) (*models.Report, error)
}

type reportService struct {
	api   ReportAPI
	cache cache.Cache
}

func NewReportService(api ReportAPI, c cache.Cache) ReportService {
	return &reportService{api: api, cache: c}
}

func (s *reportService) Status(ctx context.Context, userID string) (*models.ReportTicket, error) {
	const op = "ReportService.Status"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	var last models.ReportTicket
	hit, err := s.cache.GetJSON(ctx, lastReportKey(userID), &last)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read report ticket", err)
	}
	if !hit || last.ReportID == "" {
		return nil, utils.E(utils.CodeNotFound, op, "no report has been requested", nil)
	}
	if last.Status == models.ReportReady {
		return &last, nil
	}

	cur, err := s.api.ReportStatus(ctx, userID, last.ReportID)
	if err != nil {
		return nil, err
	}
	if cur.ReportID == "" {
		cur.ReportID = last.ReportID
	}
	if cur.Status == models.ReportReady {
		_ = RememberReport(ctx, s.cache, userID, *cur)
	}
	return cur, nil
}

func (s *reportService) Latest(ctx context.Context, userID string) (*models.Report, error) {
	const op = "ReportService.Latest"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	return s.api.LatestReport(ctx, userID)
}

// RememberReport records the user's most recent report ticket.
func RememberReport(ctx context.Context, c cache.Cache, userID string, t models.ReportTicket) error {
	return c.SetJSON(ctx, lastReportKey(userID), t, reportTicketTTL)
}

func lastReportKey(userID string) string { return "report:last:" + userID }
