package catalog

import (
	"strings"

	"bookshelf/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lower applies full Unicode lower-case mapping, independent of locale.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeTerm lower-cases and trims a search term.
func NormalizeTerm(term string) string {
	return strings.TrimSpace(lower(term))
}

// Matches reports whether the lower-cased title, author, category or isbn of
// b contains term. term must already be normalized.
func Matches(b models.Book, term string) bool {
	for _, field := range []string{b.Title, b.Author, b.Category, b.ISBN} {
		if strings.Contains(lower(field), term) {
			return true
		}
	}
	return false
}

// Filter returns the books matching term in their original order. An empty
// term returns every book.
func Filter(books []models.Book, term string) []models.Book {
	term = NormalizeTerm(term)
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if term == "" || Matches(b, term) {
			out = append(out, b)
		}
	}
	return out
}
