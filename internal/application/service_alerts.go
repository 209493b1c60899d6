package application

import (
	"context"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
)

// alertCreatedPayload is stamped with alert_id by the store once the row exists.
type alertCreatedPayload struct {
	DisasterType string   `json:"disaster_type"`
	Location     string   `json:"location"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	AlertMessage string   `json:"alert_message"`
}

func (s *Service) CreateAlert(ctx context.Context, req CreateAlertRequest) (AlertView, error) {
	if err := validateRequest(req, "Missing required fields"); err != nil {
		return AlertView{}, err
	}
	now := s.nowFn()
	event, err := newOutboxEvent(EventAlertCreated, "", alertCreatedPayload{
		DisasterType: req.DisasterType,
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		AlertMessage: req.AlertMessage,
	}, now)
	if err != nil {
		return AlertView{}, err
	}

	alert, err := s.alerts.CreateWithOutboxTx(ctx, ports.CreateAlertParams{
		DisasterType: req.DisasterType,
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		AlertMessage: req.AlertMessage,
		ShelterInfo:  req.ShelterInfo,
		Status:       domain.AlertStatusActive,
		Timestamp:    now,
	}, event)
	if err != nil {
		return AlertView{}, domain.StoreFailure("create alert", err)
	}

	if s.alertFeed != nil {
		if err := s.alertFeed.Invalidate(ctx); err != nil {
			appLogger().WarnContext(ctx, "alert feed invalidation failed",
				"operation", "create_alert",
				"outcome", "degraded",
				"error", err,
			)
		}
	}
	return toAlertView(alert), nil
}

// ListAlerts returns alerts newest first, from the feed cache when it is warm.
func (s *Service) ListAlerts(ctx context.Context) ([]AlertView, error) {
	if s.alertFeed != nil {
		cached, ok, err := s.alertFeed.Get(ctx)
		if err != nil {
			appLogger().WarnContext(ctx, "alert feed cache read failed",
				"operation", "list_alerts",
				"outcome", "degraded",
				"error", err,
			)
		} else if ok {
			return toAlertViews(cached), nil
		}
	}

	alerts, err := s.alerts.ListRecent(ctx)
	if err != nil {
		return nil, domain.StoreFailure("list alerts", err)
	}
	if s.alertFeed != nil {
		if err := s.alertFeed.Set(ctx, alerts); err != nil {
			appLogger().WarnContext(ctx, "alert feed cache write failed",
				"operation", "list_alerts",
				"outcome", "degraded",
				"error", err,
			)
		}
	}
	return toAlertViews(alerts), nil
}

func toAlertViews(alerts []domain.Alert) []AlertView {
	out := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertView(a))
	}
	return out
}
