package models

import "time"

// DefaultStatus is assigned to books submitted without a status.
const DefaultStatus = "Available"

// Book represents one record in the shared catalog.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Year      string    `json:"year"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookFields holds the raw form values of a book submission.
type BookFields struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn"`
	Year     string `json:"year"`
	Category string `json:"category"`
	Status   string `json:"status"`
}
