package domain

import "github.com/pkg/errors"

var ErrUnknownPaymentMethod = errors.New("unknown payment method")

type PaymentMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	Fee  Price  `json:"fee"`
}

const DefaultPaymentMethod = "cash"

// PaymentMethods is the fixed set offered at checkout. None carries a fee.
var PaymentMethods = []PaymentMethod{
	{ID: "cash", Name: "Tunai", Icon: "💵", Fee: 0},
	{ID: "qris", Name: "QRIS", Icon: "📱", Fee: 0},
	{ID: "gopay", Name: "GoPay", Icon: "💳", Fee: 0},
	{ID: "dana", Name: "DANA", Icon: "🏦", Fee: 0},
}

func LookupPaymentMethod(id string) (PaymentMethod, error) {
	for _, m := range PaymentMethods {
		if m.ID == id {
			return m, nil
		}
	}
	return PaymentMethod{}, errors.Wrapf(ErrUnknownPaymentMethod, "%q", id)
}
