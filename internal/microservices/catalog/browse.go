package catalog

import (
	"strings"

	"coffee-storefront/internal/domain"
)

// Filter returns the items in category whose name contains query, ignoring
// case. The all-items category and an empty category match everything.
func (c *Catalog) Filter(category, query string) []domain.CatalogItem {
	q := strings.ToLower(strings.TrimSpace(query))
	all := category == "" || category == c.allCategory

	out := make([]domain.CatalogItem, 0, len(c.items))
	for _, it := range c.items {
		if !all && it.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Featured lists the items promoted on the home page.
func (c *Catalog) Featured() []domain.CatalogItem {
	var out []domain.CatalogItem
	for _, it := range c.items {
		if it.IsFeatured {
			out = append(out, it)
		}
	}
	return out
}

func (c *Catalog) HasCategory(name string) bool {
	for _, cat := range c.categories {
		if cat == name {
			return true
		}
	}
	return false
}
