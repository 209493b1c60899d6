package postgres

import (
	"context"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"gorm.io/gorm"
)

type reportRepository struct {
	db *gorm.DB
}

func (r *reportRepository) Create(ctx context.Context, params ports.CreateReportParams) (domain.Report, error) {
	rec := reportModel{
		UserID:       params.UserID,
		Location:     nullableString(params.Location),
		DisasterType: nullableString(params.DisasterType),
		Description:  nullableString(params.Description),
		CreatedAt:    params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Report{}, err
	}
	return toDomainReport(rec), nil
}

func (r *reportRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Report, error) {
	var rows []reportModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Report, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainReport(row))
	}
	return out, nil
}
