// Package services contains the business rules for users and notes
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/technotes/backend/internal/models"
	"github.com/technotes/backend/internal/repositories"
)

// NoteRepository is the interface that wraps methods for Note table data access
type NoteRepository interface {
	// Method GetAllWithUsernames retrieves all notes joined with their owner's username.
	//
	// Notes whose owner no longer exists carry an empty username.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAllWithUsernames(ctx context.Context) ([]models.NoteWithUser, error)
	// Method GetByID retrieves a note by ID.
	//
	// If a note with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Note, error)
	// Method ExistsByTitle checks if a note with such title exists (case-insensitive).
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	// Method ExistsByTitleExcluding checks if a note other than excludeID holds the title (case-insensitive).
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByTitleExcluding(ctx context.Context, title string, excludeID int) (bool, error)
	// Method Create inserts a new note and assigns its ID and ticket number.
	//
	// If the title collides on the unique index, repositories.ErrDuplicateEntry will be returned.
	Create(ctx context.Context, note *models.Note) error
	// Method Update replaces all mutable fields of a note.
	//
	// If the title collides on the unique index, repositories.ErrDuplicateEntry will be returned.
	Update(ctx context.Context, note *models.Note) error
	// Method Delete removes a note by ID.
	//
	// If a note with such ID does not exist, repositories.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// UserLookupRepository is the subset of user data access the notes service needs
type UserLookupRepository interface {
	// Method GetByID retrieves a user by ID.
	//
	// If a user with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// noteService implements NotesService
type noteService struct {
	noteRepo NoteRepository
	userRepo UserLookupRepository
}

// NewNoteService creates a new note service
func NewNoteService(noteRepo NoteRepository, userRepo UserLookupRepository) *noteService {
	return &noteService{
		noteRepo: noteRepo,
		userRepo: userRepo,
	}
}

// GetAll retrieves all notes with the owner's username attached.
// The username is a read-time join, recomputed on every call.
func (s *noteService) GetAll(ctx context.Context) ([]models.NoteWithUser, error) {
	notes, err := s.noteRepo.GetAllWithUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}

	if len(notes) == 0 {
		return nil, errors.New("No Notes Found")
	}

	return notes, nil
}

// Create validates and persists a new note
func (s *noteService) Create(ctx context.Context, req *models.CreateNoteRequest) error {
	if req.UserID == 0 || req.Title == "" || req.Text == "" {
		return errors.New("All fields are required")
	}

	if err := s.validateUser(ctx, req.UserID); err != nil {
		return err
	}

	duplicate, err := s.noteRepo.ExistsByTitle(ctx, req.Title)
	if err != nil {
		return fmt.Errorf("failed to check title existence: %w", err)
	}
	if duplicate {
		return fmt.Errorf("Note title '%s' already exist", req.Title)
	}

	note := &models.Note{
		UserID: req.UserID,
		Title:  req.Title,
		Text:   req.Text,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		// The unique index is the authoritative guard; the pre-check above is
		// only a fast path, so a duplicate can still surface here.
		if errors.Is(err, repositories.ErrDuplicateEntry) {
			return fmt.Errorf("Note title '%s' already exist", req.Title)
		}
		return errors.New("Invalid note data received")
	}

	return nil
}

// Update validates and replaces all mutable fields of an existing note
func (s *noteService) Update(ctx context.Context, req *models.UpdateNoteRequest) (*models.Note, error) {
	if req.ID == 0 || req.UserID == 0 || req.Title == "" || req.Text == "" || req.Completed == nil {
		return nil, errors.New("All fields are required")
	}

	note, err := s.noteRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.New("Note not found")
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	if err := s.validateUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	// Allow the note to keep its own title
	duplicate, err := s.noteRepo.ExistsByTitleExcluding(ctx, req.Title, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check title existence: %w", err)
	}
	if duplicate {
		return nil, fmt.Errorf("Note title '%s' already exist", req.Title)
	}

	note.UserID = req.UserID
	note.Title = req.Title
	note.Text = req.Text
	note.Completed = *req.Completed

	if err := s.noteRepo.Update(ctx, note); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEntry) {
			return nil, fmt.Errorf("Note title '%s' already exist", req.Title)
		}
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return note, nil
}

// Delete removes a note. Notes are leaf entities, so no cross-reference guard is needed.
func (s *noteService) Delete(ctx context.Context, req *models.DeleteNoteRequest) (*models.Note, error) {
	if req.ID == 0 {
		return nil, errors.New("Note ID required")
	}

	note, err := s.noteRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.New("Note not found")
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	if err := s.noteRepo.Delete(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("failed to delete note: %w", err)
	}

	return note, nil
}

// validateUser checks that the note's owner resolves to an existing user
func (s *noteService) validateUser(ctx context.Context, userID int) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errors.New("User is not valid")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	return nil
}
