package application

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const serviceName = "disaster-alert-backend"

// Outbox event types.
const (
	EventUserRegistered = "user.registered"
	EventUserDeleted    = "user.deleted"
	EventAlertCreated   = "alert.created"

	// EventSMSAlertRequested is consumed by DispatchSMSAlert.
	EventSMSAlertRequested = "sms.alert.requested"
)

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "application",
		"layer", "application",
	)
}

// validateRequest checks struct tags and reports any failure with a single caller-facing message.
// Field-level detail stays in the wrapped error for logs.
func validateRequest(req any, message string) error {
	if err := requestValidator.Struct(req); err != nil {
		return fmt.Errorf("%w (%v)", domain.NewClientError(domain.ErrValidation, message), err)
	}
	return nil
}

// newOutboxEvent marshals payload into an event envelope stamped at occurredAt.
func newOutboxEvent(eventType, partitionKey string, payload any, occurredAt time.Time) (ports.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   occurredAt,
	}, nil
}
