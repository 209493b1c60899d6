package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
)

func (s *Service) RecordSMSAlert(ctx context.Context, req SendSMSRequest) (SMSAlertView, error) {
	if err := validateRequest(req, "Missing required fields: disasterType or message"); err != nil {
		return SMSAlertView{}, err
	}
	now := s.nowFn()
	event, err := newOutboxEvent(EventSMSAlertRequested, "", SMSAlertRequested{
		DisasterType: req.DisasterType,
		Message:      req.Message,
		ShelterInfo:  req.ShelterInfo,
		RequestedAt:  now,
	}, now)
	if err != nil {
		return SMSAlertView{}, err
	}
	alert, err := s.smsAlerts.CreateWithOutboxTx(ctx, ports.CreateSMSAlertParams{
		DisasterType: req.DisasterType,
		Message:      req.Message,
		ShelterInfo:  req.ShelterInfo,
		SentToAll:    true,
		Timestamp:    now,
	}, event)
	if err != nil {
		return SMSAlertView{}, domain.StoreFailure("create sms alert", err)
	}
	return toSMSAlertView(alert), nil
}

func (s *Service) ListSMSHistory(ctx context.Context) ([]SMSAlertView, error) {
	alerts, err := s.smsAlerts.ListRecent(ctx)
	if err != nil {
		return nil, domain.StoreFailure("list sms alerts", err)
	}
	out := make([]SMSAlertView, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toSMSAlertView(a))
	}
	return out, nil
}

// DispatchSMSAlert fans a recorded broadcast out to every user with a phone number.
// It fails only when no recipient could be reached. A broadcast whose fan-out already
// ran is skipped, so retrying the carrying event never messages recipients twice.
func (s *Service) DispatchSMSAlert(ctx context.Context, payload []byte) (DispatchResult, error) {
	var req SMSAlertRequested
	if err := json.Unmarshal(payload, &req); err != nil {
		return DispatchResult{}, fmt.Errorf("decode sms alert payload: %w", err)
	}
	if req.SMSAlertID <= 0 {
		return DispatchResult{}, errors.New("sms alert payload has no sms_alert_id")
	}
	if s.sms == nil {
		return DispatchResult{}, errors.New("sms sender is not configured")
	}

	logger := appLogger()
	alert, err := s.smsAlerts.GetByID(ctx, req.SMSAlertID)
	if err != nil {
		return DispatchResult{}, domain.StoreFailure("get sms alert", err)
	}
	if alert.DispatchedAt != nil {
		logger.InfoContext(ctx, "sms fan-out skipped; already dispatched",
			"operation", "dispatch_sms_alert",
			"outcome", "skipped",
			"sms_alert_id", req.SMSAlertID,
			"dispatched_at", *alert.DispatchedAt,
		)
		return DispatchResult{AlreadyDispatched: true}, nil
	}

	phones, err := s.users.ListPhones(ctx)
	if err != nil {
		return DispatchResult{}, domain.StoreFailure("list phones", err)
	}

	body := SMSBody(req.Message, req.ShelterInfo)
	result := DispatchResult{Recipients: len(phones)}
	var failures []error
	for _, phone := range phones {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.sms.Send(ctx, phone, body); err != nil {
			result.Failed++
			failures = append(failures, err)
			continue
		}
		result.Delivered++
	}

	if result.Failed > 0 {
		logger.WarnContext(ctx, "sms fan-out had failures",
			"operation", "dispatch_sms_alert",
			"outcome", "partial",
			"sms_alert_id", req.SMSAlertID,
			"recipients", result.Recipients,
			"failed", result.Failed,
			"error", errors.Join(failures...),
		)
	}
	if result.Recipients > 0 && result.Delivered == 0 {
		return result, fmt.Errorf("sms alert %d: all %d sends failed: %w", req.SMSAlertID, result.Recipients, errors.Join(failures...))
	}
	// The sends already happened; a missing marker is logged rather than returned.
	if err := s.smsAlerts.MarkDispatched(ctx, req.SMSAlertID, s.nowFn()); err != nil {
		logger.WarnContext(ctx, "sms dispatch marker not stored",
			"operation", "dispatch_sms_alert",
			"outcome", "failure",
			"sms_alert_id", req.SMSAlertID,
			"error", err,
		)
	}
	logger.InfoContext(ctx, "sms fan-out completed",
		"operation", "dispatch_sms_alert",
		"outcome", "success",
		"sms_alert_id", req.SMSAlertID,
		"recipients", result.Recipients,
		"delivered", result.Delivered,
	)
	return result, nil
}

// SMSBody renders the text sent to each recipient.
func SMSBody(message, shelterInfo string) string {
	shelter := strings.TrimSpace(shelterInfo)
	if shelter == "" {
		shelter = "N/A"
	}
	return fmt.Sprintf("ALERT: %s\nShelter: %s", message, shelter)
}
