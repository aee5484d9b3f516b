package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/technotes/backend/internal/auth"
	"github.com/technotes/backend/internal/config"
	"github.com/technotes/backend/internal/handlers"
	"github.com/technotes/backend/internal/middleware"
	"github.com/technotes/backend/internal/models"
	"github.com/technotes/backend/internal/repositories"
	"github.com/technotes/backend/internal/services"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	testDB        *sql.DB
	testRouter    chi.Router
	testLogger    *zap.Logger
	testTokens    *auth.TokenGenerator
	alicePassword = "secret123"
)

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Setup test database
	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	dsn := "root:password@tcp(localhost:3306)/technotes_test?parseTime=true&charset=utf8mb4"
	if cfg.Database.Host != "" {
		dsn = cfg.DSN()
	}

	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}

	if err = testDB.Ping(); err != nil {
		panic(fmt.Sprintf("Failed to ping test database: %v", err))
	}

	setupTestSchema(testDB)

	testTokens = auth.NewTokenGenerator("integration-test-secret", 15*time.Minute, 24*time.Hour)
	testRouter = setupTestRouter(testDB, testTokens, testLogger)

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// setupTestSchema creates the test database schema
func setupTestSchema(db *sql.DB) {
	db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INT PRIMARY KEY AUTO_INCREMENT,
			username VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			roles JSON NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE KEY uq_users_username (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci;
	`)

	db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id INT PRIMARY KEY AUTO_INCREMENT,
			user_id INT NOT NULL,
			title VARCHAR(255) NOT NULL,
			text TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			ticket INT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_notes_title (title),
			UNIQUE KEY uq_notes_ticket (ticket),
			INDEX idx_notes_user_id (user_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci;
	`)
}

// setupTestRouter wires repositories, services and handlers the way the server does
func setupTestRouter(db *sql.DB, tokens *auth.TokenGenerator, logger *zap.Logger) chi.Router {
	userRepo := repositories.NewUserRepository(db)
	noteRepo := repositories.NewNoteRepository(db)

	userService := services.NewUserService(userRepo, noteRepo)
	noteService := services.NewNoteService(noteRepo, userRepo)
	authService := services.NewAuthService(userRepo, tokens)

	usersHandler := handlers.NewUsersHandler(userService, logger)
	notesHandler := handlers.NewNotesHandler(noteService, logger)
	authHandler := handlers.NewAuthHandler(authService, tokens.RefreshTokenExpiry(), logger)

	r := chi.NewRouter()
	authHandler.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens))
		usersHandler.RegisterRoutes(r)
		notesHandler.RegisterRoutes(r)
	})

	return r
}

// seedTestData resets the tables and inserts two users and one note
func seedTestData(t *testing.T, db *sql.DB) {
	t.Helper()

	cleanupTestData(t, db)

	hash, err := bcrypt.GenerateFromPassword([]byte(alicePassword), bcrypt.MinCost)
	require.NoError(t, err, "Failed to hash seed password")

	_, err = db.Exec(`
		INSERT INTO users (id, username, password_hash, roles, active) VALUES
		(1, 'alice', ?, '["Employee"]', TRUE),
		(2, 'bob', ?, '["Manager"]', TRUE)
	`, string(hash), string(hash))
	require.NoError(t, err, "Failed to seed users")

	_, err = db.Exec(`
		INSERT INTO notes (id, user_id, title, text, completed, ticket) VALUES
		(1, 1, 'Groceries', 'Buy milk', FALSE, 500)
	`)
	require.NoError(t, err, "Failed to seed notes")
}

// cleanupTestData removes all test data
func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec("DELETE FROM notes")
	require.NoError(t, err, "Failed to clear notes")
	_, err = db.Exec("DELETE FROM users")
	require.NoError(t, err, "Failed to clear users")
	_, err = db.Exec("ALTER TABLE notes AUTO_INCREMENT = 1")
	require.NoError(t, err, "Failed to reset notes AUTO_INCREMENT")
	_, err = db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	require.NoError(t, err, "Failed to reset users AUTO_INCREMENT")
}

// doRequest performs an authenticated JSON request against the test router
func doRequest(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	token, err := testTokens.GenerateAccessToken("alice", []string{"Employee"})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

// decodeMessage extracts the "message" field from a JSON error or confirmation body
func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["message"]
}

func TestIntegration_Login(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	t.Run("success returns access token and refresh cookie", func(t *testing.T) {
		payload, _ := json.Marshal(models.LoginRequest{Username: "alice", Password: alicePassword})
		req := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var result models.TokenResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.NotEmpty(t, result.AccessToken)

		claims, err := testTokens.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)

		var refreshCookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == "jwt" {
				refreshCookie = c
			}
		}
		require.NotNil(t, refreshCookie, "refresh cookie not set")
		assert.True(t, refreshCookie.HttpOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		payload, _ := json.Marshal(models.LoginRequest{Username: "alice", Password: "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeMessage(t, w))
	})

	t.Run("refresh with a valid cookie", func(t *testing.T) {
		refreshToken, err := testTokens.GenerateRefreshToken("alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: refreshToken})
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var result models.TokenResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.NotEmpty(t, result.AccessToken)
	})

	t.Run("refresh without a cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/refresh", nil)
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeMessage(t, w))
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		refreshToken, err := testTokens.GenerateRefreshToken("alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: refreshToken})
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Cookie cleared", decodeMessage(t, w))
	})
}

func TestIntegration_AuthGuard(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeMessage(t, w))
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()

		testRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Forbidden", decodeMessage(t, w))
	})
}

func TestIntegration_Users(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	t.Run("get all excludes password hashes", func(t *testing.T) {
		w := doRequest(t, http.MethodGet, "/users", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var users []map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&users))
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0]["username"])
		assert.NotContains(t, users[0], "password")
		assert.NotContains(t, users[0], "passwordHash")
	})

	t.Run("create", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/users", models.CreateUserRequest{Username: "carol", Password: "pw123456"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "New user carol created", decodeMessage(t, w))
	})

	t.Run("create with missing fields", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/users", models.CreateUserRequest{Username: "dave"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "All fields are required", decodeMessage(t, w))
	})

	t.Run("duplicate username differing only in case", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/users", models.CreateUserRequest{Username: "ALICE", Password: "pw123456"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Username 'ALICE' already exist", decodeMessage(t, w))
	})

	t.Run("update", func(t *testing.T) {
		active := true
		w := doRequest(t, http.MethodPatch, "/users", models.UpdateUserRequest{
			ID:       2,
			Username: "robert",
			Roles:    []string{"Manager"},
			Active:   &active,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "robert updated", decodeMessage(t, w))
	})

	t.Run("update to a taken username", func(t *testing.T) {
		active := true
		w := doRequest(t, http.MethodPatch, "/users", models.UpdateUserRequest{
			ID:       2,
			Username: "Alice",
			Roles:    []string{"Manager"},
			Active:   &active,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Username 'Alice' already exist", decodeMessage(t, w))
	})

	t.Run("delete user with assigned notes is blocked", func(t *testing.T) {
		w := doRequest(t, http.MethodDelete, "/users", models.DeleteUserRequest{ID: 1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User has assigned notes", decodeMessage(t, w))

		// The user and its notes must be untouched
		var count int
		require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM users WHERE id = 1").Scan(&count))
		assert.Equal(t, 1, count)
		require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM notes WHERE user_id = 1").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("delete user without notes", func(t *testing.T) {
		w := doRequest(t, http.MethodDelete, "/users", models.DeleteUserRequest{ID: 2})

		require.Equal(t, http.StatusOK, w.Code)

		var reply string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
		assert.Equal(t, "Username robert with ID 2 deleted", reply)
	})

	t.Run("delete without id", func(t *testing.T) {
		w := doRequest(t, http.MethodDelete, "/users", models.DeleteUserRequest{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User ID required", decodeMessage(t, w))
	})
}

func TestIntegration_Notes(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	t.Run("get all includes the owner's username", func(t *testing.T) {
		w := doRequest(t, http.MethodGet, "/notes", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var notes []models.NoteWithUser
		require.NoError(t, json.NewDecoder(w.Body).Decode(&notes))
		require.Len(t, notes, 1)
		assert.Equal(t, "Groceries", notes[0].Title)
		assert.Equal(t, "alice", notes[0].Username)
		assert.Equal(t, 500, notes[0].Ticket)
	})

	t.Run("create assigns the next ticket", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/notes", models.CreateNoteRequest{
			UserID: 1,
			Title:  "Standup",
			Text:   "Prepare talking points",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "New note created", decodeMessage(t, w))

		var ticket int
		require.NoError(t, testDB.QueryRow("SELECT ticket FROM notes WHERE title = 'Standup'").Scan(&ticket))
		assert.Equal(t, 501, ticket)
	})

	t.Run("create with missing fields", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/notes", models.CreateNoteRequest{UserID: 1, Title: "Incomplete"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "All fields are required", decodeMessage(t, w))
	})

	t.Run("create with unknown user", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/notes", models.CreateNoteRequest{
			UserID: 999,
			Title:  "Ghost note",
			Text:   "Owner does not exist",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User is not valid", decodeMessage(t, w))
	})

	t.Run("duplicate title differing only in case", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/notes", models.CreateNoteRequest{
			UserID: 1,
			Title:  "groceries",
			Text:   "Different text, same title",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Note title 'groceries' already exist", decodeMessage(t, w))
	})

	t.Run("update", func(t *testing.T) {
		completed := true
		w := doRequest(t, http.MethodPatch, "/notes", models.UpdateNoteRequest{
			ID:        1,
			UserID:    1,
			Title:     "Groceries",
			Text:      "Buy milk and eggs",
			Completed: &completed,
		})

		require.Equal(t, http.StatusOK, w.Code)

		var reply string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
		assert.Equal(t, "'Groceries' updated", reply)

		var text string
		var done bool
		require.NoError(t, testDB.QueryRow("SELECT text, completed FROM notes WHERE id = 1").Scan(&text, &done))
		assert.Equal(t, "Buy milk and eggs", text)
		assert.True(t, done)
	})

	t.Run("delete", func(t *testing.T) {
		w := doRequest(t, http.MethodDelete, "/notes", models.DeleteNoteRequest{ID: 1})

		require.Equal(t, http.StatusOK, w.Code)

		var reply string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
		assert.Equal(t, "Note 'Groceries' with ID '1' deleted", reply)
	})
}

func TestIntegration_EmptyCollections(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	cleanupTestData(t, testDB)

	t.Run("no notes", func(t *testing.T) {
		w := doRequest(t, http.MethodGet, "/notes", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No Notes Found", decodeMessage(t, w))
	})

	t.Run("no users", func(t *testing.T) {
		w := doRequest(t, http.MethodGet, "/users", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No users found", decodeMessage(t, w))
	})
}
