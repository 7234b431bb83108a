package models

import "time"

// User represents a registered account in the user directory.
// Password is stored as entered.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the logged-in projection of a User. It never carries the password.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionFor builds the session projection of u.
func SessionFor(u User) Session {
	return Session{ID: u.ID, Name: u.Name, Email: u.Email}
}
