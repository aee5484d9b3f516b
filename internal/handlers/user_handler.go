package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/technotes/backend/internal/models"
	"go.uber.org/zap"
)

// UsersService is the interface that wraps methods for Users business logic.
type UsersService interface {
	// Method GetAll retrieves all users with credentials redacted.
	//
	// If no users exist, or some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method Create validates and persists a new user with a hashed password.
	//
	// "req" parameter carries username, password and optional roles.
	//
	// If required fields are missing, the username is taken, or persistence fails, the error will be returned together with "nil" value.
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	// Method Update validates and replaces username, roles and active of an existing user.
	//
	// "req" parameter carries the user ID, the replacement field set and an optional new password.
	//
	// If validation fails or the user does not exist, the error will be returned together with "nil" value.
	Update(ctx context.Context, req *models.UpdateUserRequest) (*models.User, error)
	// Method Delete removes a user unless notes still reference it, returning it for the confirmation reply.
	//
	// "req" parameter carries the user ID.
	//
	// If the ID is missing, the user owns notes, or the user does not exist, the error will be returned together with "nil" value.
	Delete(ctx context.Context, req *models.DeleteUserRequest) (*models.User, error)
}

// UsersHandler handles HTTP requests for users
type UsersHandler struct {
	BaseHandler
	service UsersService
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(svc UsersService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all users handler routes
func (h *UsersHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Post("/", h.Create)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

// GetAll handles GET /users
// @Summary Get all users
// @Description Get all users with password hashes excluded
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.User
// @Failure 400 {object} map[string]string "No users found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [get]
func (h *UsersHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to get users", zap.Error(err))
		h.respondMessage(w, statusForError(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, users)
}

// Create handles POST /users
// @Summary Create a user
// @Description Create a new user; the username must be unique (case-insensitive)
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user body models.CreateUserRequest true "User to create"
// @Success 201 {object} map[string]string "New user created"
// @Failure 400 {object} map[string]string "Missing fields"
// @Failure 409 {object} map[string]string "Duplicate username"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [post]
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		h.respondMessage(w, statusForError(err), err.Error())
		return
	}

	h.respondMessage(w, http.StatusCreated, fmt.Sprintf("New user %s created", user.Username))
}

// Update handles PATCH /users
// @Summary Update a user
// @Description Replace username, roles and active flag; re-hash the password when one is supplied
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user body models.UpdateUserRequest true "User fields to replace"
// @Success 200 {object} map[string]string "User updated"
// @Failure 400 {object} map[string]string "Missing fields or user not found"
// @Failure 409 {object} map[string]string "Duplicate username"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [patch]
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to update user", zap.Error(err))
		h.respondMessage(w, statusForError(err), err.Error())
		return
	}

	h.respondMessage(w, http.StatusOK, fmt.Sprintf("%s updated", user.Username))
}

// Delete handles DELETE /users
// @Summary Delete a user
// @Description Delete a user by ID; blocked while any note references the user
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user body models.DeleteUserRequest true "User to delete"
// @Success 200 {string} string "Username <username> with ID <id> deleted"
// @Failure 400 {object} map[string]string "Missing ID, user not found or user has assigned notes"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [delete]
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteUserRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.Delete(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to delete user", zap.Error(err))
		h.respondMessage(w, statusForError(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, fmt.Sprintf("Username %s with ID %d deleted", user.Username, user.ID))
}
