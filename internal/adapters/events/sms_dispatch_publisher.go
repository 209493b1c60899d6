package events

import (
	"context"
	"log/slog"

	"github.com/disasterline/alert-backend/internal/application"
	"github.com/disasterline/alert-backend/internal/ports"
)

// SMSDispatcher fans one sms.alert.requested payload out to subscribers.
type SMSDispatcher interface {
	DispatchSMSAlert(ctx context.Context, payload []byte) (application.DispatchResult, error)
}

// SMSDispatchPublisher delivers SMS broadcast events locally and forwards
// every event, SMS included, to the next publisher once delivery succeeded.
// A retry after a forward failure finds the broadcast marked dispatched and only forwards.
type SMSDispatchPublisher struct {
	logger     *slog.Logger
	dispatcher SMSDispatcher
	next       ports.EventPublisher
}

func NewSMSDispatchPublisher(logger *slog.Logger, dispatcher SMSDispatcher, next ports.EventPublisher) *SMSDispatchPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMSDispatchPublisher{
		logger:     logger.With("module", "events.sms_dispatch", "layer", "adapter"),
		dispatcher: dispatcher,
		next:       next,
	}
}

func (p *SMSDispatchPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	if eventType == application.EventSMSAlertRequested {
		result, err := p.dispatcher.DispatchSMSAlert(ctx, payload)
		if err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "sms alert dispatched",
			"operation", "dispatch_sms_alert",
			"outcome", "success",
			"partition_key", partitionKey,
			"recipients", result.Recipients,
			"delivered", result.Delivered,
			"failed", result.Failed,
			"already_dispatched", result.AlreadyDispatched,
		)
	}
	if p.next == nil {
		return nil
	}
	return p.next.Publish(ctx, eventType, payload, partitionKey)
}
