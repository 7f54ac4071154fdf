// Package cart holds the in-progress order of a single visitor.
package cart

import (
	"time"

	"github.com/pkg/errors"

	"coffee-storefront/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty")

// Cart maps item id to a line. Quantities of present lines are always >= 1.
// A Cart is not safe for concurrent use; the owning session serialises access.
type Cart struct {
	lines map[int]*domain.CartLine
	order []int // first-add order of the ids in lines
}

func New() *Cart {
	return &Cart{lines: make(map[int]*domain.CartLine)}
}

// Add puts one more unit of item in the cart. A line already at
// domain.MaxQuantity is left as is.
func (c *Cart) Add(item domain.CatalogItem) {
	if l, ok := c.lines[item.ID]; ok {
		if l.Quantity < domain.MaxQuantity {
			l.Quantity++
		}
		return
	}
	c.lines[item.ID] = &domain.CartLine{Item: item, Quantity: 1}
	c.order = append(c.order, item.ID)
}

// DecrementOrRemove takes one unit away, dropping the line at quantity 1.
func (c *Cart) DecrementOrRemove(id int) {
	l, ok := c.lines[id]
	if !ok {
		return
	}
	if l.Quantity > 1 {
		l.Quantity--
		return
	}
	c.Remove(id)
}

// SetQuantity sets the quantity of an existing line; n <= 0 removes it and
// n above domain.MaxQuantity is clamped.
func (c *Cart) SetQuantity(id, n int) {
	l, ok := c.lines[id]
	if !ok {
		return
	}
	if n <= 0 {
		c.Remove(id)
		return
	}
	l.Quantity = min(n, domain.MaxQuantity)
}

func (c *Cart) Remove(id int) {
	if _, ok := c.lines[id]; !ok {
		return
	}
	delete(c.lines, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Clear() {
	c.lines = make(map[int]*domain.CartLine)
	c.order = nil
}

// Settle takes paid lines out of the cart. Units added after the order was
// handed off stay in the cart.
func (c *Cart) Settle(paid []domain.CartLine) {
	for _, p := range paid {
		l, ok := c.lines[p.Item.ID]
		if !ok {
			continue
		}
		if l.Quantity <= p.Quantity {
			c.Remove(p.Item.ID)
			continue
		}
		l.Quantity -= p.Quantity
	}
}

func (c *Cart) Total() domain.Price {
	var total domain.Price
	for _, l := range c.lines {
		total += l.LineTotal()
	}
	return total
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Quantity(id int) int {
	if l, ok := c.lines[id]; ok {
		return l.Quantity
	}
	return 0
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Lines returns copies of the lines in the order they were first added.
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Snapshot builds the checkout payload for the current contents.
func (c *Cart) Snapshot(now time.Time) (domain.CheckoutPayload, error) {
	if c.IsEmpty() {
		return domain.CheckoutPayload{}, ErrEmptyCart
	}
	return domain.CheckoutPayload{
		Items:     c.Lines(),
		Total:     c.Total(),
		Timestamp: now.UTC(),
	}, nil
}
