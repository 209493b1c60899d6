package application

import (
	"context"

	"github.com/disasterline/alert-backend/internal/domain"
)

// ListUsers returns every identity ordered by id. Callers must have passed the admin gate.
func (s *Service) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, domain.StoreFailure("list users", err)
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, toUserSummary(u))
	}
	return out, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	return s.deleteUser(ctx, userID, "admin")
}
