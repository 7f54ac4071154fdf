package handoff

import (
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"

	"coffee-storefront/internal/domain"
)

// lineDoc mirrors a cart line as the browser front-end stored it: the item
// fields flattened next to the quantity, the price kept in its display form.
type lineDoc struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       string  `json:"price"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
	IsPopular   bool    `json:"isPopular,omitempty"`
	IsNew       bool    `json:"isNew,omitempty"`
	IsPromo     bool    `json:"isPromo,omitempty"`
	Discount    string  `json:"discount,omitempty"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Quantity    int     `json:"quantity"`
}

type payloadDoc struct {
	Items     []lineDoc `json:"items"`
	Total     int64     `json:"total"`
	Timestamp string    `json:"timestamp"`
}

// Encode validates p and serializes it.
func Encode(p domain.CheckoutPayload) ([]byte, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	doc := payloadDoc{
		Items:     make([]lineDoc, 0, len(p.Items)),
		Total:     int64(p.Total),
		Timestamp: p.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	for _, l := range p.Items {
		it := l.Item
		doc.Items = append(doc.Items, lineDoc{
			ID:          it.ID,
			Name:        it.Name,
			Price:       it.Price.String(),
			Image:       it.Image,
			Category:    it.Category,
			IsPopular:   it.IsPopular,
			IsNew:       it.IsNew,
			IsPromo:     it.IsPromo,
			Discount:    it.Discount,
			Description: it.Description,
			Rating:      it.Rating,
			Quantity:    l.Quantity,
		})
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "encode checkout payload")
	}
	return b, nil
}

// Decode parses stored text and validates the result. Every failure is
// reported as ErrMalformedPayload.
func Decode(b []byte) (domain.CheckoutPayload, error) {
	var doc payloadDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return domain.CheckoutPayload{}, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	ts, err := time.Parse(time.RFC3339Nano, doc.Timestamp)
	if err != nil {
		return domain.CheckoutPayload{}, errors.Wrapf(ErrMalformedPayload, "timestamp %q", doc.Timestamp)
	}
	p := domain.CheckoutPayload{
		Items:     make([]domain.CartLine, 0, len(doc.Items)),
		Total:     domain.Price(doc.Total),
		Timestamp: ts,
	}
	for i, d := range doc.Items {
		price, err := domain.ParsePrice(d.Price)
		if err != nil {
			return domain.CheckoutPayload{}, errors.Wrapf(ErrMalformedPayload, "item #%d: %v", i, err)
		}
		p.Items = append(p.Items, domain.CartLine{
			Item: domain.CatalogItem{
				ID:          d.ID,
				Name:        d.Name,
				Price:       price,
				Image:       d.Image,
				Category:    d.Category,
				IsPopular:   d.IsPopular,
				IsNew:       d.IsNew,
				IsPromo:     d.IsPromo,
				Discount:    d.Discount,
				Description: d.Description,
				Rating:      d.Rating,
			},
			Quantity: d.Quantity,
		})
	}
	if err := Validate(p); err != nil {
		return domain.CheckoutPayload{}, err
	}
	return p, nil
}

// Validate checks the payload schema and that the total matches its lines.
func Validate(p domain.CheckoutPayload) error {
	if len(p.Items) == 0 {
		return errors.Wrap(ErrMalformedPayload, "no items")
	}
	seen := make(map[int]bool, len(p.Items))
	var sum domain.Price
	for i, l := range p.Items {
		switch {
		case l.Item.ID <= 0:
			return errors.Wrapf(ErrMalformedPayload, "item #%d: invalid id %d", i, l.Item.ID)
		case seen[l.Item.ID]:
			return errors.Wrapf(ErrMalformedPayload, "item #%d: duplicate id %d", i, l.Item.ID)
		case l.Item.Name == "":
			return errors.Wrapf(ErrMalformedPayload, "item #%d: empty name", i)
		case l.Item.Price < 0:
			return errors.Wrapf(ErrMalformedPayload, "item #%d: negative price", i)
		case l.Quantity < 1 || l.Quantity > domain.MaxQuantity:
			return errors.Wrapf(ErrMalformedPayload, "item #%d: quantity %d", i, l.Quantity)
		case l.Item.Price > 0 && int64(l.Item.Price) > math.MaxInt64/int64(l.Quantity):
			return errors.Wrapf(ErrMalformedPayload, "item #%d: line total overflows", i)
		}
		seen[l.Item.ID] = true
		lt := l.LineTotal()
		if sum > math.MaxInt64-lt {
			return errors.Wrapf(ErrMalformedPayload, "item #%d: total overflows", i)
		}
		sum += lt
	}
	if sum != p.Total {
		return errors.Wrapf(ErrMalformedPayload, "total %d does not match lines %d", p.Total, sum)
	}
	if p.Timestamp.IsZero() {
		return errors.Wrap(ErrMalformedPayload, "missing timestamp")
	}
	return nil
}
