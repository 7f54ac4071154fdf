// Package catalog loads the immutable menu and answers browse queries on it.
package catalog

import (
	_ "embed"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"coffee-storefront/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrItemNotFound   = errors.New("item not found")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

type itemDoc struct {
	ID          int     `yaml:"id"`
	Name        string  `yaml:"name"`
	Price       string  `yaml:"price"`
	Image       string  `yaml:"image"`
	Category    string  `yaml:"category"`
	Description string  `yaml:"description"`
	Popular     bool    `yaml:"popular"`
	New         bool    `yaml:"new"`
	Promo       bool    `yaml:"promo"`
	Featured    bool    `yaml:"featured"`
	Discount    string  `yaml:"discount"`
	Rating      float64 `yaml:"rating"`
}

type catalogDoc struct {
	AllCategory string    `yaml:"all_category"`
	Categories  []string  `yaml:"categories"`
	Items       []itemDoc `yaml:"items"`
}

type Catalog struct {
	items       []domain.CatalogItem
	byID        map[int]domain.CatalogItem
	categories  []string
	allCategory string
}

// Open loads the catalog at path, or the built-in menu when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Catalog, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return Parse(b)
}

// Parse validates every entry; one malformed price rejects the whole catalog.
func Parse(b []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(ErrInvalidCatalog, err.Error())
	}
	c := &Catalog{
		byID:        make(map[int]domain.CatalogItem, len(doc.Items)),
		categories:  doc.Categories,
		allCategory: doc.AllCategory,
	}
	for i, d := range doc.Items {
		if d.ID <= 0 {
			return nil, errors.Wrapf(ErrInvalidCatalog, "item #%d: id must be positive", i)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, errors.Wrapf(ErrInvalidCatalog, "item #%d: duplicate id %d", i, d.ID)
		}
		if strings.TrimSpace(d.Name) == "" {
			return nil, errors.Wrapf(ErrInvalidCatalog, "item %d: empty name", d.ID)
		}
		price, err := domain.ParsePrice(d.Price)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidCatalog, "item %d: %v", d.ID, err)
		}
		it := domain.CatalogItem{
			ID:          d.ID,
			Name:        d.Name,
			Price:       price,
			Image:       d.Image,
			Category:    d.Category,
			IsPopular:   d.Popular,
			IsNew:       d.New,
			IsPromo:     d.Promo,
			IsFeatured:  d.Featured,
			Discount:    d.Discount,
			Description: d.Description,
			Rating:      d.Rating,
		}
		c.items = append(c.items, it)
		c.byID[it.ID] = it
	}
	if len(c.categories) == 0 && c.allCategory != "" {
		c.categories = []string{c.allCategory}
	}
	return c, nil
}

func (c *Catalog) Items() []domain.CatalogItem {
	return append([]domain.CatalogItem(nil), c.items...)
}

func (c *Catalog) Get(id int) (domain.CatalogItem, error) {
	it, ok := c.byID[id]
	if !ok {
		return domain.CatalogItem{}, errors.Wrapf(ErrItemNotFound, "id %d", id)
	}
	return it, nil
}

func (c *Catalog) Categories() []string { return append([]string(nil), c.categories...) }

// DefaultCategory is the tab shown first; it lists every item.
func (c *Catalog) DefaultCategory() string {
	if c.allCategory != "" {
		return c.allCategory
	}
	if len(c.categories) > 0 {
		return c.categories[0]
	}
	return ""
}
