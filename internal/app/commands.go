package app

import "bookshelf/internal/models"

// Command is a user action routed by App.Dispatch.
type Command interface {
	command()
}

// Register creates an account.
type Register struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Login authenticates and opens the session.
type Login struct {
	Email    string
	Password string
}

// Logout closes the session.
type Logout struct{}

// SubmitBook creates a book, or updates the one under edit.
type SubmitBook struct {
	Fields models.BookFields
}

// BeginEdit switches the form to edit mode for ID.
type BeginEdit struct {
	ID string
}

// CancelEdit switches the form back to create mode.
type CancelEdit struct{}

// RequestDelete asks for confirmation before deleting ID.
type RequestDelete struct {
	ID string
}

// ConfirmDelete performs a requested deletion.
type ConfirmDelete struct {
	Token string
}

// CancelDelete drops a requested deletion.
type CancelDelete struct {
	Token string
}

// Search changes the active search term.
type Search struct {
	Term string
}

// ClearSearch empties the active search term.
type ClearSearch struct{}

func (Register) command()      {}
func (Login) command()         {}
func (Logout) command()        {}
func (SubmitBook) command()    {}
func (BeginEdit) command()     {}
func (CancelEdit) command()    {}
func (RequestDelete) command() {}
func (ConfirmDelete) command() {}
func (CancelDelete) command()  {}
func (Search) command()        {}
func (ClearSearch) command()   {}
