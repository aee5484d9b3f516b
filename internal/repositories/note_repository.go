package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/technotes/backend/internal/models"
)

// noteRepository implements NoteRepository
type noteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sql.DB) *noteRepository {
	return &noteRepository{
		db: db,
	}
}

// GetAllWithUsernames retrieves all notes joined with their owner's username.
// Notes whose owner no longer exists get an empty username.
func (r *noteRepository) GetAllWithUsernames(ctx context.Context) ([]models.NoteWithUser, error) {
	query := `
		SELECT n.id, n.user_id, n.title, n.text, n.completed, n.ticket,
		       n.created_at, n.updated_at, COALESCE(u.username, '')
		FROM notes n
		LEFT JOIN users u ON u.id = n.user_id
		ORDER BY n.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.NoteWithUser
	for rows.Next() {
		var note models.NoteWithUser
		err := rows.Scan(
			&note.ID,
			&note.UserID,
			&note.Title,
			&note.Text,
			&note.Completed,
			&note.Ticket,
			&note.CreatedAt,
			&note.UpdatedAt,
			&note.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notes, nil
}

// GetByID retrieves a note by ID
func (r *noteRepository) GetByID(ctx context.Context, id int) (*models.Note, error) {
	query := `
		SELECT id, user_id, title, text, completed, ticket, created_at, updated_at
		FROM notes
		WHERE id = ?
	`

	note := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Text,
		&note.Completed,
		&note.Ticket,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note by id: %w", err)
	}

	return note, nil
}

// ExistsByTitle checks if a note exists with the given title.
// The check is case-insensitive via the column collation.
func (r *noteRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM notes WHERE title = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check title existence: %w", err)
	}

	return exists, nil
}

// ExistsByTitleExcluding checks if a note other than excludeID holds the given title
func (r *noteRepository) ExistsByTitleExcluding(ctx context.Context, title string, excludeID int) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM notes WHERE title = ? AND id != ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, title, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check title existence: %w", err)
	}

	return exists, nil
}

// ExistsByUserID checks if any note references the given user
func (r *noteRepository) ExistsByUserID(ctx context.Context, userID int) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM notes WHERE user_id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check notes existence: %w", err)
	}

	return exists, nil
}

// Create inserts a new note into the database.
// The ticket sequence starts at 500; collisions under concurrent inserts are
// rejected by the unique index and surface as ErrDuplicateEntry.
func (r *noteRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (user_id, title, text, completed, ticket)
		SELECT ?, ?, ?, ?, COALESCE(MAX(ticket), 499) + 1 FROM notes
	`

	result, err := r.db.ExecContext(ctx, query, note.UserID, note.Title, note.Text, note.Completed)
	if isDuplicateEntry(err) {
		return fmt.Errorf("title %q: %w", note.Title, ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	note.ID = int(id)
	return nil
}

// Update replaces all mutable fields of a note
func (r *noteRepository) Update(ctx context.Context, note *models.Note) error {
	query := `
		UPDATE notes
		SET user_id = ?, title = ?, text = ?, completed = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, note.UserID, note.Title, note.Text, note.Completed, note.ID)
	if isDuplicateEntry(err) {
		return fmt.Errorf("title %q: %w", note.Title, ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	// A replace with unchanged values reports zero affected rows, so the
	// result is only used to surface driver errors.
	if _, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	return nil
}

// Delete removes a note by ID
func (r *noteRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM notes WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
