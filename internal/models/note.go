package models

import "time"

// Note represents a note in the system
type Note struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Ticket    int       `json:"ticket"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteWithUser is a note joined with its owner's username for list responses.
// The username is recomputed on every read and never stored.
type NoteWithUser struct {
	Note
	Username string `json:"username"`
}

// CreateNoteRequest is the body of POST /notes
type CreateNoteRequest struct {
	UserID int    `json:"user"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

// UpdateNoteRequest is the body of PATCH /notes.
// Completed is a pointer so a missing flag can be told apart from an explicit false.
type UpdateNoteRequest struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Completed *bool  `json:"completed"`
}

// DeleteNoteRequest is the body of DELETE /notes
type DeleteNoteRequest struct {
	ID int `json:"id"`
}
