package domain

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrIncompleteCustomerInfo = errors.New("customer name and phone are required")

type CatalogItem struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       Price   `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	IsPopular   bool    `json:"is_popular,omitempty"`
	IsNew       bool    `json:"is_new,omitempty"`
	IsPromo     bool    `json:"is_promo,omitempty"`
	IsFeatured  bool    `json:"is_featured,omitempty"`
	Discount    string  `json:"discount,omitempty"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// CartLine is one catalog item plus its quantity within an in-progress order.
// The item is copied by value so later catalog reloads never alter a cart.
type CartLine struct {
	Item     CatalogItem `json:"item"`
	Quantity int         `json:"quantity"`
}

// MaxQuantity bounds the quantity of a single cart line.
const MaxQuantity = 99

func (l CartLine) LineTotal() Price { return l.Item.Price.Mul(l.Quantity) }

// CheckoutPayload is the order handed from the menu to the checkout view.
type CheckoutPayload struct {
	Items     []CartLine
	Total     Price
	Timestamp time.Time
}

func (p CheckoutPayload) ItemCount() int {
	n := 0
	for _, l := range p.Items {
		n += l.Quantity
	}
	return n
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (c CustomerInfo) Normalize() CustomerInfo {
	return CustomerInfo{
		Name:  strings.TrimSpace(c.Name),
		Phone: strings.TrimSpace(c.Phone),
		Notes: strings.TrimSpace(c.Notes),
	}
}

func (c CustomerInfo) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrIncompleteCustomerInfo, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Receipt is the summary of a completed (simulated) purchase. It is never
// persisted by the storefront.
type Receipt struct {
	OrderID       string       `json:"order_id"`
	Customer      CustomerInfo `json:"customer"`
	Items         []CartLine   `json:"items"`
	Subtotal      Price        `json:"subtotal"`
	PaymentMethod string       `json:"payment_method"`
	Fee           Price        `json:"fee"`
	Total         Price        `json:"total"`
	Timestamp     time.Time    `json:"timestamp"`
	Notes         string       `json:"notes,omitempty"`
}
