// Package handoff passes a pending order from the menu to the checkout view.
//
// The store keeps at most one serialized CheckoutPayload per session under a
// fixed key. Whatever is read back is treated as untrusted input and validated
// before it reaches the checkout.
package handoff

import (
	"context"

	"github.com/pkg/errors"

	"coffee-storefront/internal/domain"
)

// Key is the name the payload is stored under.
const Key = "checkoutData"

var (
	ErrNoPendingOrder   = errors.New("no pending order")
	ErrMalformedPayload = errors.New("malformed checkout payload")
	ErrStoreUnavailable = errors.New("checkout store unavailable")
)

type Store interface {
	// Publish overwrites any payload already held for the session.
	Publish(ctx context.Context, sessionID string, p domain.CheckoutPayload) error
	// Consume returns ErrNoPendingOrder when nothing is held for the session.
	Consume(ctx context.Context, sessionID string) (domain.CheckoutPayload, error)
	Clear(ctx context.Context, sessionID string) error
}
