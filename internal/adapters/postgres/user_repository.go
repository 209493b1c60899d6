package postgres

import (
	"context"
	"errors"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) CreateWithOutboxTx(ctx context.Context, params ports.CreateUserParams, outboxEvent ports.OutboxEvent) (domain.User, error) {
	var result domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := userModel{
			Name:             params.Name,
			Age:              params.Age,
			Phone:            nullableString(params.Phone),
			Email:            params.Email,
			Password:         params.PasswordHash,
			Location:         nullableString(params.Location),
			Region:           params.Region,
			EmergencyContact: nullableString(params.EmergencyContact),
			Role:             params.Role.String(),
			CreatedAt:        params.CreatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateEmail
			}
			return err
		}

		outbox := newOutboxRow(outboxEvent, "user_id", rec.ID)
		if err := tx.Create(&outbox).Error; err != nil {
			return err
		}

		result = toDomainUser(rec)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return result, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return toDomainUser(rec), nil
}

func (r *userRepository) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return toDomainUser(rec), nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainUser(row))
	}
	return out, nil
}

func (r *userRepository) UpdateContact(ctx context.Context, userID int64, update domain.ContactUpdate) error {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"phone":             nullableString(update.Phone),
			"location":          nullableString(update.Location),
			"region":            update.Region,
			"emergency_contact": nullableString(update.EmergencyContact),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteWithOutboxTx removes the identity; profile and report rows go with it by cascade.
func (r *userRepository) DeleteWithOutboxTx(ctx context.Context, userID int64, outboxEvent ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", userID).Delete(&userModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		outbox := newOutboxRow(outboxEvent, "", 0)
		return tx.Create(&outbox).Error
	})
}

func (r *userRepository) ListPhones(ctx context.Context) ([]string, error) {
	var phones []string
	if err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("phone IS NOT NULL AND phone <> ''").
		Order("id ASC").
		Pluck("phone", &phones).Error; err != nil {
		return nil, err
	}
	return phones, nil
}
