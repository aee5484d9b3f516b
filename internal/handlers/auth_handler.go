package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/technotes/backend/internal/models"
	"go.uber.org/zap"
)

// refreshCookieName is the HTTP-only cookie carrying the refresh token
const refreshCookieName = "jwt"

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Login authenticates a user and returns access and refresh tokens.
	//
	// "req" parameter carries username and password.
	//
	// If fields are missing, the user is unknown or inactive, or the password does not match, the error will be returned together with empty token strings.
	Login(ctx context.Context, req *models.LoginRequest) (string, string, error)
	// Method Refresh issues a new access token from a valid refresh token.
	//
	// If the refresh token is invalid or expired, or the user is gone or inactive, the error will be returned together with an empty token string.
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	BaseHandler
	service            AuthService
	refreshTokenExpiry time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc AuthService, refreshTokenExpiry time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:            svc,
		refreshTokenExpiry: refreshTokenExpiry,
		BaseHandler:        BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/", h.Login)
		r.Get("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
	})
}

// Login handles POST /auth
// @Summary Log in
// @Description Authenticate with username and password; returns an access token and sets an HTTP-only refresh cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "User credentials"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} map[string]string "Missing fields"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	accessToken, refreshToken, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed", zap.String("username", req.Username), zap.Error(err))
		h.respondMessage(w, authStatusForError(err), err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshTokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	h.respondJSON(w, http.StatusOK, models.TokenResponse{AccessToken: accessToken})
}

// Refresh handles GET /auth/refresh
// @Summary Refresh the access token
// @Description Issue a new access token from the refresh cookie
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} map[string]string "Missing cookie or unknown user"
// @Failure 403 {object} map[string]string "Invalid or expired refresh token"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/refresh [get]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		h.respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.logger.Warn("token refresh failed", zap.Error(err))
		h.respondMessage(w, authStatusForError(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, models.TokenResponse{AccessToken: accessToken})
}

// Logout handles POST /auth/logout
// @Summary Log out
// @Description Clear the refresh cookie
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Cookie cleared"
// @Success 204 "No cookie present"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(refreshCookieName); err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	h.respondMessage(w, http.StatusOK, "Cookie cleared")
}

// authStatusForError maps an auth service error to its HTTP status code
func authStatusForError(err error) int {
	msg := err.Error()
	switch {
	case msg == "Unauthorized":
		return http.StatusUnauthorized
	case msg == "Forbidden":
		return http.StatusForbidden
	case strings.HasPrefix(msg, "failed to"):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
