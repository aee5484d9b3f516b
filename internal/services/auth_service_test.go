package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/technotes/backend/internal/auth"
	"github.com/technotes/backend/internal/models"
	"github.com/technotes/backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

func newTestTokenGenerator() *auth.TokenGenerator {
	return auth.NewTokenGenerator("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Login(t *testing.T) {
	tokenGenerator := newTestTokenGenerator()

	activeUser := func(t *testing.T) *models.User {
		return &models.User{
			ID:           1,
			Username:     "alice",
			PasswordHash: hashPassword(t, "secret123"),
			Roles:        []string{"Employee"},
			Active:       true,
		}
	}

	t.Run("success", func(t *testing.T) {
		mockRepo := &mockUserRepository{user: activeUser(t)}
		svc := NewAuthService(mockRepo, tokenGenerator)

		accessToken, refreshToken, err := svc.Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "secret123"})

		require.NoError(t, err)

		claims, err := tokenGenerator.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, []string{"Employee"}, claims.Roles)

		username, err := tokenGenerator.ValidateRefreshToken(refreshToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", username)
	})

	t.Run("missing credentials", func(t *testing.T) {
		svc := NewAuthService(&mockUserRepository{}, tokenGenerator)

		_, _, err := svc.Login(context.Background(), &models.LoginRequest{Username: "alice"})

		require.Error(t, err)
		assert.Equal(t, "All fields are required", err.Error())
	})

	t.Run("unknown user", func(t *testing.T) {
		mockRepo := &mockUserRepository{err: repositories.ErrNotFound}
		svc := NewAuthService(mockRepo, tokenGenerator)

		_, _, err := svc.Login(context.Background(), &models.LoginRequest{Username: "ghost", Password: "secret123"})

		require.Error(t, err)
		assert.Equal(t, "Unauthorized", err.Error())
	})

	t.Run("inactive user", func(t *testing.T) {
		user := activeUser(t)
		user.Active = false
		svc := NewAuthService(&mockUserRepository{user: user}, tokenGenerator)

		_, _, err := svc.Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "secret123"})

		require.Error(t, err)
		assert.Equal(t, "Unauthorized", err.Error())
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := NewAuthService(&mockUserRepository{user: activeUser(t)}, tokenGenerator)

		_, _, err := svc.Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "wrong"})

		require.Error(t, err)
		assert.Equal(t, "Unauthorized", err.Error())
	})
}

func TestAuthService_Refresh(t *testing.T) {
	tokenGenerator := newTestTokenGenerator()

	activeUser := &models.User{
		ID:       1,
		Username: "alice",
		Roles:    []string{"Employee", "Manager"},
		Active:   true,
	}

	t.Run("success", func(t *testing.T) {
		refreshToken, err := tokenGenerator.GenerateRefreshToken("alice")
		require.NoError(t, err)

		svc := NewAuthService(&mockUserRepository{user: activeUser}, tokenGenerator)

		accessToken, err := svc.Refresh(context.Background(), refreshToken)

		require.NoError(t, err)
		claims, err := tokenGenerator.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, []string{"Employee", "Manager"}, claims.Roles)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := NewAuthService(&mockUserRepository{user: activeUser}, tokenGenerator)

		_, err := svc.Refresh(context.Background(), "not-a-token")

		require.Error(t, err)
		assert.Equal(t, "Forbidden", err.Error())
	})

	t.Run("access token is not accepted as a refresh token", func(t *testing.T) {
		accessToken, err := tokenGenerator.GenerateAccessToken("alice", []string{"Employee"})
		require.NoError(t, err)

		svc := NewAuthService(&mockUserRepository{user: activeUser}, tokenGenerator)

		_, err = svc.Refresh(context.Background(), accessToken)

		require.Error(t, err)
		assert.Equal(t, "Forbidden", err.Error())
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		otherGenerator := auth.NewTokenGenerator("other-secret", 15*time.Minute, 7*24*time.Hour)
		refreshToken, err := otherGenerator.GenerateRefreshToken("alice")
		require.NoError(t, err)

		svc := NewAuthService(&mockUserRepository{user: activeUser}, tokenGenerator)

		_, err = svc.Refresh(context.Background(), refreshToken)

		require.Error(t, err)
		assert.Equal(t, "Forbidden", err.Error())
	})

	t.Run("user no longer exists", func(t *testing.T) {
		refreshToken, err := tokenGenerator.GenerateRefreshToken("ghost")
		require.NoError(t, err)

		svc := NewAuthService(&mockUserRepository{err: repositories.ErrNotFound}, tokenGenerator)

		_, err = svc.Refresh(context.Background(), refreshToken)

		require.Error(t, err)
		assert.Equal(t, "Unauthorized", err.Error())
	})

	t.Run("deactivated user", func(t *testing.T) {
		refreshToken, err := tokenGenerator.GenerateRefreshToken("alice")
		require.NoError(t, err)

		inactive := &models.User{ID: 1, Username: "alice", Roles: []string{"Employee"}, Active: false}
		svc := NewAuthService(&mockUserRepository{user: inactive}, tokenGenerator)

		_, err = svc.Refresh(context.Background(), refreshToken)

		require.Error(t, err)
		assert.Equal(t, "Unauthorized", err.Error())
	})
}
