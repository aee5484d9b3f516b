package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/technotes/backend/internal/models"
	"github.com/technotes/backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method GetAll retrieves all users without their password hashes.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If a user with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method ExistsByUsername checks if a user with such username exists (case-insensitive).
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Method ExistsByUsernameExcluding checks if a user other than excludeID holds the username (case-insensitive).
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsernameExcluding(ctx context.Context, username string, excludeID int) (bool, error)
	// Method Create inserts a new user and assigns its ID.
	//
	// If the username collides on the unique index, repositories.ErrDuplicateEntry will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method Update replaces username, roles and active, and the password hash when one is set.
	//
	// If the username collides on the unique index, repositories.ErrDuplicateEntry will be returned.
	Update(ctx context.Context, user *models.User) error
	// Method Delete removes a user by ID.
	//
	// If a user with such ID does not exist, repositories.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// NoteGuardRepository is the subset of note data access the users service needs
// for the cross-entity delete guard.
type NoteGuardRepository interface {
	// Method ExistsByUserID checks if any note references the given user.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUserID(ctx context.Context, userID int) (bool, error)
}

// userService implements UsersService
type userService struct {
	userRepo UserRepository
	noteRepo NoteGuardRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository, noteRepo NoteGuardRepository) *userService {
	return &userService{
		userRepo: userRepo,
		noteRepo: noteRepo,
	}
}

// GetAll retrieves all users with credentials redacted
func (s *userService) GetAll(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	if len(users) == 0 {
		return nil, errors.New("No users found")
	}

	return users, nil
}

// Create validates and persists a new user with a hashed password
func (s *userService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, errors.New("All fields are required")
	}

	duplicate, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if duplicate {
		return nil, fmt.Errorf("Username '%s' already exist", req.Username)
	}

	// bcrypt.DefaultCost is 10 rounds, tuned for interactive login latency
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{models.DefaultRole}
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(passwordHash),
		Roles:        roles,
		Active:       true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique index is the authoritative guard; the pre-check above is
		// only a fast path, so a duplicate can still surface here.
		if errors.Is(err, repositories.ErrDuplicateEntry) {
			return nil, fmt.Errorf("Username '%s' already exist", req.Username)
		}
		return nil, errors.New("Invalid user data received")
	}

	return user, nil
}

// Update validates and replaces username, roles and active of an existing user.
// A supplied password is re-hashed; an empty one leaves the stored hash untouched.
func (s *userService) Update(ctx context.Context, req *models.UpdateUserRequest) (*models.User, error) {
	if req.ID == 0 || req.Username == "" || len(req.Roles) == 0 || req.Active == nil {
		return nil, errors.New("All fields are required")
	}

	user, err := s.userRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.New("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Allow the user to keep its own username
	duplicate, err := s.userRepo.ExistsByUsernameExcluding(ctx, req.Username, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if duplicate {
		return nil, fmt.Errorf("Username '%s' already exist", req.Username)
	}

	user.Username = req.Username
	user.Roles = req.Roles
	user.Active = *req.Active
	user.PasswordHash = ""

	if req.Password != "" {
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(passwordHash)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEntry) {
			return nil, fmt.Errorf("Username '%s' already exist", req.Username)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Delete removes a user unless any note still references it
func (s *userService) Delete(ctx context.Context, req *models.DeleteUserRequest) (*models.User, error) {
	if req.ID == 0 {
		return nil, errors.New("User ID required")
	}

	hasNotes, err := s.noteRepo.ExistsByUserID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check notes existence: %w", err)
	}
	if hasNotes {
		return nil, errors.New("User has assigned notes")
	}

	user, err := s.userRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.New("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.userRepo.Delete(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	return user, nil
}
