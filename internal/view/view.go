// Package view projects a catalog snapshot and a search term onto the list
// the user sees. It is pure: the same input always yields the same Display.
package view

import (
	"fmt"
	"io"
	"strings"

	"bookshelf/internal/catalog"
	"bookshelf/internal/models"
)

// EmptyState tells why a Display has no cards.
type EmptyState int

const (
	// NotEmpty means at least one card is visible.
	NotEmpty EmptyState = iota
	// EmptyCatalog means there are no books at all.
	EmptyCatalog
	// NoMatches means books exist but none match the term.
	NoMatches
)

func (e EmptyState) String() string {
	switch e {
	case EmptyCatalog:
		return "empty_catalog"
	case NoMatches:
		return "no_matches"
	}
	return "not_empty"
}

// MarshalText encodes the state by name.
func (e EmptyState) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Card is one visible book.
type Card struct {
	models.Book
	StatusClass string `json:"statusClass"`
}

// Display is the projected list.
type Display struct {
	Term  string     `json:"term"`
	Cards []Card     `json:"cards"`
	Total int        `json:"total"`
	Empty EmptyState `json:"empty"`
}

// Project filters books by term and builds the cards in catalog order.
func Project(books []models.Book, term string) Display {
	term = catalog.NormalizeTerm(term)
	visible := catalog.Filter(books, term)

	d := Display{Term: term, Total: len(books), Cards: make([]Card, 0, len(visible))}
	for _, b := range visible {
		d.Cards = append(d.Cards, Card{Book: b, StatusClass: StatusClass(b.Status)})
	}
	if len(d.Cards) == 0 {
		d.Empty = EmptyCatalog
		if term != "" {
			d.Empty = NoMatches
		}
	}
	return d
}

// EmptyMessage returns the headline and hint shown in place of the list.
func (d Display) EmptyMessage() (headline, hint string) {
	switch d.Empty {
	case EmptyCatalog:
		return "No books registered yet.", "Start by adding your first book!"
	case NoMatches:
		return "No books found for this search.", "Try other search terms."
	}
	return "", ""
}

// StatusClass is the css class of a status badge: "status-" followed by the
// lower-cased status with its first space turned into a dash.
func StatusClass(status string) string {
	return "status-" + strings.Replace(strings.ToLower(status), " ", "-", 1)
}

// WriteText renders d as plain text for terminals.
func WriteText(w io.Writer, d Display) error {
	var sb strings.Builder
	if d.Empty != NotEmpty {
		headline, hint := d.EmptyMessage()
		fmt.Fprintf(&sb, "%s\n%s\n", headline, hint)
		_, err := io.WriteString(w, sb.String())
		return err
	}

	if d.Term != "" {
		fmt.Fprintf(&sb, "%d of %d books match %q\n", len(d.Cards), d.Total, d.Term)
	} else {
		fmt.Fprintf(&sb, "%d books\n", d.Total)
	}
	for _, c := range d.Cards {
		fmt.Fprintf(&sb, "\n%s by %s [%s]\n", c.Title, c.Author, c.Status)
		fmt.Fprintf(&sb, "  id: %s\n", c.ID)
		var details []string
		if c.ISBN != "" {
			details = append(details, "isbn: "+c.ISBN)
		}
		if c.Year != "" {
			details = append(details, "year: "+c.Year)
		}
		if c.Category != "" {
			details = append(details, "category: "+c.Category)
		}
		if len(details) > 0 {
			fmt.Fprintf(&sb, "  %s\n", strings.Join(details, ", "))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
