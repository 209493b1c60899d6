package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
)

const (
	msgSignupFieldsMissing = "All required fields must be filled"
	msgEmailRegistered     = "Email already registered"
	msgMissingCredentials  = "Missing credentials"
	msgUserNotFound        = "User not found"
	msgInvalidPassword     = "Invalid password"
)

type userRegisteredPayload struct {
	Email        string      `json:"email"`
	Region       string      `json:"region"`
	Role         domain.Role `json:"role"`
	RegisteredAt time.Time   `json:"registered_at"`
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (SignupResponse, error) {
	if err := validateRequest(req, msgSignupFieldsMissing); err != nil {
		return SignupResponse{}, err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return SignupResponse{}, err
	}
	if role != domain.RoleUser && !s.cfg.AllowSignupRole {
		return SignupResponse{}, domain.NewClientError(domain.ErrValidation, "Invalid role")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return SignupResponse{}, domain.NewClientError(domain.ErrDuplicateEmail, msgEmailRegistered)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return SignupResponse{}, domain.StoreFailure("find user by email", err)
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return SignupResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	event, err := newOutboxEvent(EventUserRegistered, "", userRegisteredPayload{
		Email:        req.Email,
		Region:       req.Region,
		Role:         role,
		RegisteredAt: now,
	}, now)
	if err != nil {
		return SignupResponse{}, err
	}

	user, err := s.users.CreateWithOutboxTx(ctx, ports.CreateUserParams{
		Name:             req.Name,
		Age:              req.Age,
		Phone:            req.Phone,
		Email:            req.Email,
		PasswordHash:     digest,
		Location:         req.Location,
		Region:           req.Region,
		EmergencyContact: req.EmergencyContact,
		Role:             role,
		CreatedAt:        now,
	}, event)
	if err != nil {
		// Lost the race against a concurrent signup for the same email.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return SignupResponse{}, domain.NewClientError(domain.ErrDuplicateEmail, msgEmailRegistered)
		}
		return SignupResponse{}, domain.StoreFailure("create user", err)
	}

	appLogger().InfoContext(ctx, "user registered",
		"operation", "signup",
		"outcome", "success",
		"user_id", user.ID,
		"role", user.Role,
	)
	return SignupResponse{User: toPublicUser(user)}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	if err := validateRequest(req, msgMissingCredentials); err != nil {
		return LoginResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LoginResponse{}, domain.NewClientError(domain.ErrUserNotFound, msgUserNotFound)
		}
		return LoginResponse{}, domain.StoreFailure("find user by email", err)
	}
	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		return LoginResponse{}, domain.NewClientError(domain.ErrInvalidPassword, msgInvalidPassword)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResponse{Token: token, User: toPublicUser(user)}, nil
}

// ValidateToken verifies a raw bearer token. Every failure matches domain.ErrTokenInvalid.
func (s *Service) ValidateToken(_ context.Context, raw string) (ports.AuthClaims, error) {
	if raw == "" {
		return ports.AuthClaims{}, domain.ErrTokenMissing
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		if !errors.Is(err, domain.ErrTokenInvalid) {
			err = fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
		}
		return ports.AuthClaims{}, err
	}
	return claims, nil
}

// RequireRole is the authorization gate: the verified role must equal required exactly.
func (s *Service) RequireRole(claims ports.AuthClaims, required domain.Role) error {
	if claims.Role != required {
		return fmt.Errorf("%w: user %s has role %q, need %q",
			domain.ErrForbidden, strconv.FormatInt(claims.UserID, 10), claims.Role, required)
	}
	return nil
}
