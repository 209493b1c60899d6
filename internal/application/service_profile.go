package application

import (
	"context"
	"errors"
	"strconv"

	"github.com/disasterline/alert-backend/internal/domain"
)

type userDeletedPayload struct {
	UserID    int64  `json:"user_id"`
	DeletedBy string `json:"deleted_by"`
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ProfileView{}, domain.NewClientError(domain.ErrNotFound, msgUserNotFound)
		}
		return ProfileView{}, domain.StoreFailure("get user", err)
	}
	view := ProfileView{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Region:           user.Region,
		Location:         user.Location,
		Phone:            user.Phone,
		EmergencyContact: user.EmergencyContact,
		Role:             user.Role,
		CreatedAt:        user.CreatedAt,
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return ProfileView{}, domain.StoreFailure("get profile", err)
	}
	if profile != nil {
		view.ProfileImage = profile.ProfileImage
		view.Address = profile.Address
		view.JoinedAt = profile.JoinedAt
	}
	return view, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) error {
	err := s.users.UpdateContact(ctx, userID, domain.ContactUpdate{
		Phone:            req.Phone,
		Location:         req.Location,
		Region:           req.Region,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewClientError(domain.ErrNotFound, msgUserNotFound)
		}
		return domain.StoreFailure("update contact", err)
	}
	return nil
}

// DeleteAccount removes the caller's own identity.
func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	return s.deleteUser(ctx, userID, "self")
}

func (s *Service) deleteUser(ctx context.Context, userID int64, deletedBy string) error {
	event, err := newOutboxEvent(EventUserDeleted, strconv.FormatInt(userID, 10), userDeletedPayload{
		UserID:    userID,
		DeletedBy: deletedBy,
	}, s.nowFn())
	if err != nil {
		return err
	}
	if err := s.users.DeleteWithOutboxTx(ctx, userID, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewClientError(domain.ErrNotFound, msgUserNotFound)
		}
		return domain.StoreFailure("delete user", err)
	}
	appLogger().InfoContext(ctx, "user deleted",
		"operation", "delete_user",
		"outcome", "success",
		"user_id", userID,
		"deleted_by", deletedBy,
	)
	return nil
}
