package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/technotes/backend/internal/models"
)

// userRepository implements UserRepository
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{
		db: db,
	}
}

// GetAll retrieves all users without their password hashes
func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, username, roles, active
		FROM users
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var rolesJSON []byte
		if err := rows.Scan(&user.ID, &user.Username, &rolesJSON, &user.Active); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, username, roles, active
		FROM users
		WHERE id = ?
	`

	user := &models.User{}
	var rolesJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username, &rolesJSON, &user.Active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username, including the password hash.
// The username comparison is case-insensitive via the column collation.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, roles, active
		FROM users
		WHERE username = ?
	`

	user := &models.User{}
	var rolesJSON []byte
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&rolesJSON,
		&user.Active,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
	}

	return user, nil
}

// ExistsByUsername checks if a user exists with the given username.
// The check is case-insensitive via the column collation.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE username = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// ExistsByUsernameExcluding checks if a user other than excludeID holds the given username
func (r *userRepository) ExistsByUsernameExcluding(ctx context.Context, username string, excludeID int) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE username = ? AND id != ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	query := `
		INSERT INTO users (username, password_hash, roles, active)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash, rolesJSON, user.Active)
	if isDuplicateEntry(err) {
		return fmt.Errorf("username %q: %w", user.Username, ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// Update replaces username, roles and active, and the password hash when one is set
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	var result sql.Result
	if user.PasswordHash != "" {
		query := `
			UPDATE users
			SET username = ?, roles = ?, active = ?, password_hash = ?
			WHERE id = ?
		`
		result, err = r.db.ExecContext(ctx, query, user.Username, rolesJSON, user.Active, user.PasswordHash, user.ID)
	} else {
		query := `
			UPDATE users
			SET username = ?, roles = ?, active = ?
			WHERE id = ?
		`
		result, err = r.db.ExecContext(ctx, query, user.Username, rolesJSON, user.Active, user.ID)
	}
	if isDuplicateEntry(err) {
		return fmt.Errorf("username %q: %w", user.Username, ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	// A replace with unchanged values reports zero affected rows, so the
	// result is only used to surface driver errors.
	if _, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	return nil
}

// Delete removes a user by ID
func (r *userRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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
