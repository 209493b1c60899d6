package postgres

import (
	"context"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"gorm.io/gorm"
)

type alertRepository struct {
	db *gorm.DB
}

func (r *alertRepository) CreateWithOutboxTx(ctx context.Context, params ports.CreateAlertParams, outboxEvent ports.OutboxEvent) (domain.Alert, error) {
	var result domain.Alert
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := alertModel{
			DisasterType: params.DisasterType,
			Location:     params.Location,
			Latitude:     params.Latitude,
			Longitude:    params.Longitude,
			AlertMessage: params.AlertMessage,
			ShelterInfo:  nullableString(params.ShelterInfo),
			Status:       params.Status,
			Timestamp:    params.Timestamp,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		outbox := newOutboxRow(outboxEvent, "alert_id", rec.ID)
		if err := tx.Create(&outbox).Error; err != nil {
			return err
		}
		result = toDomainAlert(rec)
		return nil
	})
	if err != nil {
		return domain.Alert{}, err
	}
	return result, nil
}

func (r *alertRepository) ListRecent(ctx context.Context) ([]domain.Alert, error) {
	var rows []alertModel
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Alert, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAlert(row))
	}
	return out, nil
}
