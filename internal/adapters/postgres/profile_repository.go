package postgres

import (
	"context"
	"errors"

	"github.com/disasterline/alert-backend/internal/domain"
	"gorm.io/gorm"
)

type profileRepository struct {
	db *gorm.DB
}

// GetByUserID returns nil without error when the user has no profile row.
func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error) {
	var rec profileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	profile := toDomainProfile(rec)
	return &profile, nil
}
