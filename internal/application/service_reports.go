package application

import (
	"context"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
)

func (s *Service) CreateReport(ctx context.Context, req CreateReportRequest) (ReportView, error) {
	if err := validateRequest(req, "user_id is required"); err != nil {
		return ReportView{}, err
	}
	report, err := s.reports.Create(ctx, ports.CreateReportParams{
		UserID:       req.UserID,
		Location:     req.Location,
		DisasterType: req.DisasterType,
		Description:  req.Description,
		CreatedAt:    s.nowFn(),
	})
	if err != nil {
		return ReportView{}, domain.StoreFailure("create report", err)
	}
	return toReportView(report), nil
}

// ListReports returns a user's reports, newest first.
func (s *Service) ListReports(ctx context.Context, userID int64) ([]ReportView, error) {
	reports, err := s.reports.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.StoreFailure("list reports", err)
	}
	out := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		out = append(out, toReportView(r))
	}
	return out, nil
}
