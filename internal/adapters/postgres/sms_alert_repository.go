package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"gorm.io/gorm"
)

type smsAlertRepository struct {
	db *gorm.DB
}

// CreateWithOutboxTx records the broadcast and its dispatch event atomically,
// so the fan-out worker never sees an event without a row or the reverse.
func (r *smsAlertRepository) CreateWithOutboxTx(ctx context.Context, params ports.CreateSMSAlertParams, outboxEvent ports.OutboxEvent) (domain.SMSAlert, error) {
	var result domain.SMSAlert
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := smsAlertModel{
			DisasterType: params.DisasterType,
			Message:      params.Message,
			ShelterInfo:  nullableString(params.ShelterInfo),
			SentToAll:    params.SentToAll,
			Timestamp:    params.Timestamp,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		outbox := newOutboxRow(outboxEvent, "sms_alert_id", rec.ID)
		if err := tx.Create(&outbox).Error; err != nil {
			return err
		}
		result = toDomainSMSAlert(rec)
		return nil
	})
	if err != nil {
		return domain.SMSAlert{}, err
	}
	return result, nil
}

func (r *smsAlertRepository) ListRecent(ctx context.Context) ([]domain.SMSAlert, error) {
	var rows []smsAlertModel
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.SMSAlert, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSMSAlert(row))
	}
	return out, nil
}

func (r *smsAlertRepository) GetByID(ctx context.Context, id int64) (domain.SMSAlert, error) {
	var rec smsAlertModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SMSAlert{}, domain.ErrNotFound
		}
		return domain.SMSAlert{}, err
	}
	return toDomainSMSAlert(rec), nil
}

// MarkDispatched keeps the first dispatch time; a repeated call is a no-op.
func (r *smsAlertRepository) MarkDispatched(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&smsAlertModel{}).
		Where("id = ?", id).
		Where("dispatched_at IS NULL").
		Update("dispatched_at", at)
	return res.Error
}
