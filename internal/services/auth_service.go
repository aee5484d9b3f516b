package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/technotes/backend/internal/auth"
	"github.com/technotes/backend/internal/models"
	"github.com/technotes/backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// AuthUserRepository is the subset of user data access the auth service needs
type AuthUserRepository interface {
	// Method GetByUsername retrieves a user by username, including the password hash.
	//
	// If a user with such username does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// authService implements AuthService
type authService struct {
	userRepo       AuthUserRepository
	tokenGenerator *auth.TokenGenerator
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo AuthUserRepository, tokenGenerator *auth.TokenGenerator) *authService {
	return &authService{
		userRepo:       userRepo,
		tokenGenerator: tokenGenerator,
	}
}

// Login authenticates a user and returns access and refresh tokens
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, string, error) {
	if req.Username == "" || req.Password == "" {
		return "", "", errors.New("All fields are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", "", errors.New("Unauthorized")
		}
		return "", "", fmt.Errorf("failed to get user: %w", err)
	}

	if !user.Active {
		return "", "", errors.New("Unauthorized")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", "", errors.New("Unauthorized")
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(user.Username, user.Roles)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(user.Username)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Refresh issues a new access token from a valid refresh token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	username, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", errors.New("Forbidden")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", errors.New("Unauthorized")
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !user.Active {
		return "", errors.New("Unauthorized")
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(user.Username, user.Roles)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, nil
}
