package catalog

import (
	"cmp"
	"slices"

	"bookshelf/internal/models"
)

// Uncategorized labels books with an empty category in a Summary.
const Uncategorized = "Uncategorized"

// Bucket counts the books sharing one status or category.
type Bucket struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Summary is a breakdown of a catalog by status and by category.
type Summary struct {
	Total      int      `json:"total"`
	Statuses   []Bucket `json:"statuses"`
	Categories []Bucket `json:"categories"`
}

// Summarize groups books by status and by category. Buckets are ordered by
// count, largest first, then by label.
func Summarize(books []models.Book) Summary {
	return Summary{
		Total:      len(books),
		Statuses:   group(books, func(b models.Book) string { return b.Status }),
		Categories: group(books, func(b models.Book) string { return b.Category }),
	}
}

func group(books []models.Book, key func(models.Book) string) []Bucket {
	counts := make(map[string]int)
	for _, b := range books {
		label := key(b)
		if label == "" {
			label = Uncategorized
		}
		counts[label]++
	}

	buckets := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, Bucket{
			Label:      label,
			Count:      n,
			Percentage: float64(n) / float64(len(books)) * 100,
		})
	}
	slices.SortFunc(buckets, func(a, b Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return buckets
}
