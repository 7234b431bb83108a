package handlers

import (
	"net/http"

	"bookshelf/internal/catalog"
	"bookshelf/internal/models"
	"bookshelf/internal/view"
)

// StatsItem is one row of a breakdown table.
type StatsItem struct {
	catalog.Bucket
	StatusClass string
}

// StatsViewModel is the data passed to the statistics view template.
type StatsViewModel struct {
	User       *models.Session
	Total      int
	Statuses   []StatsItem
	Categories []StatsItem
}

// Statistics renders the catalog breakdown by status and by category.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.app.Stats()
	if err != nil {
		h.serverError(w, "catalog stats", err)
		return
	}

	statuses := make([]StatsItem, 0, len(summary.Statuses))
	for _, b := range summary.Statuses {
		statuses = append(statuses, StatsItem{Bucket: b, StatusClass: view.StatusClass(b.Label)})
	}
	categories := make([]StatsItem, 0, len(summary.Categories))
	for _, b := range summary.Categories {
		categories = append(categories, StatsItem{Bucket: b})
	}

	h.render(w, r, "stats.html", StatsViewModel{
		User:       GetUserFromContext(r),
		Total:      summary.Total,
		Statuses:   statuses,
		Categories: categories,
	})
}
