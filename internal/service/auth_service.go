package service

import (
	"context"
	"errors"
	"fmt"

	"review-hub/internal/apperrors"
	"review-hub/internal/auth"
	"review-hub/internal/models"
	"review-hub/internal/storage"
	"review-hub/pkg/validator"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles authentication business logic
type AuthService struct {
	userRepo storage.UserRepository
	authSvc  *auth.Service
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo storage.UserRepository, authSvc *auth.Service) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		authSvc:  authSvc,
	}
}

// SignupInput carries the fields for a new account.
type SignupInput struct {
	Username  string      `json:"username" validate:"required,min=3,max=50"`
	Password  string      `json:"password" validate:"required,min=8"`
	Nickname  string      `json:"nickname" validate:"required,max=50"`
	Role      models.Role `json:"role"`
	Languages []string    `json:"languages"`
}

// Signup registers a new user. Reviewers must declare at least one
// language they are qualified in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	input.Username = validator.SanitizeString(input.Username)
	input.Nickname = validator.SanitizeString(input.Nickname)

	if err := validator.ValidateStruct(&input); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid signup")
	}

	switch input.Role {
	case models.RoleRequester, models.RoleReviewer:
	default:
		return nil, apperrors.New(apperrors.KindValidation, "role must be REQUESTER or REVIEWER")
	}

	var languages []string
	if input.Role == models.RoleReviewer {
		for _, language := range input.Languages {
			if normalized := validator.NormalizeLanguage(language); normalized != "" {
				languages = append(languages, normalized)
			}
		}
		if len(languages) == 0 {
			return nil, apperrors.New(apperrors.KindValidation, "reviewers must declare at least one language")
		}
	}

	passwordHash, err := s.authSvc.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: passwordHash,
		Nickname:     input.Nickname,
		Role:         input.Role,
		Languages:    languages,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, apperrors.New(apperrors.KindConflict, "username %s is taken", input.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.authSvc.GenerateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}
