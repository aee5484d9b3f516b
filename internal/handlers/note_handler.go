package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/technotes/backend/internal/models"
	"go.uber.org/zap"
)

// NotesService is the interface that wraps methods for Notes business logic.
type NotesService interface {
	// Method GetAll retrieves all notes with the owner's username attached.
	//
	// If no notes exist, or some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAll(ctx context.Context) ([]models.NoteWithUser, error)
	// Method Create validates and persists a new note.
	//
	// "req" parameter carries the owning user reference, title and text.
	//
	// If required fields are missing, the owner does not resolve, the title is taken, or persistence fails, the error will be returned.
	Create(ctx context.Context, req *models.CreateNoteRequest) error
	// Method Update validates and replaces all mutable fields of an existing note.
	//
	// "req" parameter carries the note ID and the full replacement field set.
	//
	// If validation fails or the note does not exist, the error will be returned together with "nil" value.
	Update(ctx context.Context, req *models.UpdateNoteRequest) (*models.Note, error)
	// Method Delete removes a note and returns it for the confirmation reply.
	//
	// "req" parameter carries the note ID.
	//
	// If the ID is missing or the note does not exist, the error will be returned together with "nil" value.
	Delete(ctx context.Context, req *models.DeleteNoteRequest) (*models.Note, error)
}

// NotesHandler handles HTTP requests for notes
type NotesHandler struct {
	BaseHandler
	service NotesService
}

// NewNotesHandler creates a new notes handler
func NewNotesHandler(svc NotesService, logger *zap.Logger) *NotesHandler {
	return &NotesHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all notes handler routes
func (h *NotesHandler) RegisterRoutes(r chi.Router) {
	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Post("/", h.Create)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

// GetAll handles GET /notes
// @Summary Get all notes
// @Description Get all notes with the owning user's username attached
// @Tags notes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.NoteWithUser
// @Failure 400 {object} map[string]string "No notes found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /notes [get]
func (h *NotesHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to get notes", zap.Error(err))
		h.respondMessage(w, statusForError(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, notes)
}

// Create handles POST /notes
// @Summary Create a note
// @Description Create a new note owned by an existing user; the title must be unique (case-insensitive)
// @Tags notes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param note body models.CreateNoteRequest true "Note to create"
// @Success 201 {object} map[string]string "New note created"
// @Failure 400 {object} map[string]string "Missing fields or invalid user"
// @Failure 409 {object} map[string]string "Duplicate title"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /notes [post]
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNoteRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.service.Create(r.Context(), &req); err != nil {
		h.logger.Error("failed to create note", zap.Error(err))
		h.respondMessage(w, statusForError(err), err.Error())
		return
	}

	h.respondMessage(w, http.StatusCreated, "New note created")
}

// Update handles PATCH /notes
// @Summary Update a note
// @Description Replace all mutable fields of a note
// @Tags notes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param note body models.UpdateNoteRequest true "Note fields to replace"
// @Success 200 {string} string "'<title>' updated"
// @Failure 400 {object} map[string]string "Missing fields, note not found or invalid user"
// @Failure 409 {object} map[string]string "Duplicate title"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /notes [patch]
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateNoteRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	note, err := h.service.Update(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to update note", zap.Error(err))
		h.respondMessage(w, statusForError(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, fmt.Sprintf("'%s' updated", note.Title))
}

// Delete handles DELETE /notes
// @Summary Delete a note
// @Description Delete a note by ID; notes are leaf entities, so no guard applies
// @Tags notes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param note body models.DeleteNoteRequest true "Note to delete"
// @Success 200 {string} string "Note '<title>' with ID '<id>' deleted"
// @Failure 400 {object} map[string]string "Missing ID or note not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /notes [delete]
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteNoteRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	note, err := h.service.Delete(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to delete note", zap.Error(err))
		h.respondMessage(w, statusForError(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, fmt.Sprintf("Note '%s' with ID '%d' deleted", note.Title, note.ID))
}
