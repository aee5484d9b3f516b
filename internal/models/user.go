package models

// DefaultRole is assigned when a user is created without explicit roles
const DefaultRole = "Employee"

// User represents a user in the system
type User struct {
	ID           int      `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"` // Never serialize password hash
	Roles        []string `json:"roles"`
	Active       bool     `json:"active"`
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// UpdateUserRequest is the body of PATCH /users.
// Active is a pointer so a missing flag can be told apart from an explicit false.
type UpdateUserRequest struct {
	ID       int      `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Active   *bool    `json:"active"`
	Password string   `json:"password"`
}

// DeleteUserRequest is the body of DELETE /users
type DeleteUserRequest struct {
	ID int `json:"id"`
}
