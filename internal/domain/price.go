package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Price is an amount in whole Rupiah.
type Price int64

const currencyPrefix = "Rp"

var (
	ErrMalformedPrice = errors.New("malformed price")

	// Rp + integer with '.' every three digits, e.g. Rp18.000
	priceRe = regexp.MustCompile(`^Rp(\d{1,3}(?:\.\d{3})*)$`)

	idPrinter = message.NewPrinter(language.Indonesian)
)

// ParsePrice converts the storefront price text ("Rp18.000") into a Price.
// It accepts exactly that convention and nothing else.
func ParsePrice(s string) (Price, error) {
	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return 0, errors.Wrapf(ErrMalformedPrice, "%q", s)
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ".", ""), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedPrice, "%q: %v", s, err)
	}
	return Price(n), nil
}

// MustParsePrice is ParsePrice for literals known to be well formed.
func MustParsePrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the price the way it is displayed and stored: Rp18.000.
func (p Price) String() string {
	return currencyPrefix + idPrinter.Sprintf("%d", int64(p))
}

func (p Price) Mul(qty int) Price { return p * Price(qty) }
