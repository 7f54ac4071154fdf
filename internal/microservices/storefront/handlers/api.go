package handlers

import (
	"net/http"
	"strings"

	"coffee-storefront/internal/domain"
)

type apiItem struct {
	domain.CatalogItem
	PriceLabel string `json:"price_label"`
}

type apiCartLine struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	Price      domain.Price `json:"price"`
	PriceLabel string       `json:"price_label"`
	Quantity   int          `json:"quantity"`
	LineTotal  domain.Price `json:"line_total"`
}

func (h *Handler) APICatalog(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !h.catalog.HasCategory(category) {
		writeProblem(w, http.StatusBadRequest, "unknown_category", "unknown category "+category)
		return
	}
	if category == "" {
		category = h.catalog.DefaultCategory()
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	found := h.catalog.Filter(category, query)
	items := make([]apiItem, 0, len(found))
	for _, it := range found {
		items = append(items, apiItem{CatalogItem: it, PriceLabel: it.Price.String()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category":   category,
		"query":      query,
		"categories": h.catalog.Categories(),
		"items":      items,
	})
}

func (h *Handler) APICart(w http.ResponseWriter, r *http.Request) {
	s, _ := h.currentSession(r)
	c := h.visitor(s).cart

	lines := make([]apiCartLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, apiCartLine{
			ID:         l.Item.ID,
			Name:       l.Item.Name,
			Price:      l.Item.Price,
			PriceLabel: l.Item.Price.String(),
			Quantity:   l.Quantity,
			LineTotal:  l.LineTotal(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":       lines,
		"total":       c.Total,
		"total_label": c.Total.String(),
		"item_count":  c.Count,
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}
