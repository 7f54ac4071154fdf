// Package checkout runs the payment simulation for a handed-off order.
package checkout

import (
	"context"
	"time"

	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/domain"
	"coffee-storefront/internal/microservices/handoff"
)

const DefaultDelay = 2 * time.Second

// Notifier is told about every completed receipt. Failures are logged and
// never undo the completion.
type Notifier interface {
	NotifyReceipt(ctx context.Context, r domain.Receipt) error
}

// CompletionHook runs after a payment completes, outside the checkout lock.
type CompletionHook func(sessionID string, r domain.Receipt)

type CheckoutServiceInterface interface {
	// Begin reads the session's pending order and opens a checkout for it.
	Begin(ctx context.Context, sessionID string) (*Checkout, error)
}

type CheckoutService struct {
	store    handoff.Store
	notifier Notifier
	ids      *OrderIDs
	delay    time.Duration
	now      func() time.Time
	hook     CompletionHook
	log      *logger.Logger
}

type Option func(*CheckoutService)

func WithDelay(d time.Duration) Option { return func(s *CheckoutService) { s.delay = d } }

func WithClock(now func() time.Time) Option {
	return func(s *CheckoutService) { s.now = now }
}

func WithOrderIDs(ids *OrderIDs) Option { return func(s *CheckoutService) { s.ids = ids } }

func WithCompletionHook(h CompletionHook) Option {
	return func(s *CheckoutService) { s.hook = h }
}

func NewCheckoutService(store handoff.Store, notifier Notifier, opts ...Option) *CheckoutService {
	s := &CheckoutService{
		store:    store,
		notifier: notifier,
		delay:    DefaultDelay,
		now:      time.Now,
		log:      logger.New("checkout"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.ids == nil {
		s.ids = NewOrderIDs(s.now)
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	return s
}

func (s *CheckoutService) Begin(ctx context.Context, sessionID string) (*Checkout, error) {
	p, err := s.store.Consume(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.log.Debug("checkout_opened", map[string]any{
		"session_id": sessionID, "items": p.ItemCount(), "total": int64(p.Total),
	})
	return &Checkout{
		svc:       s,
		sessionID: sessionID,
		payload:   p,
		state:     StateCollecting,
		method:    mustMethod(domain.DefaultPaymentMethod),
	}, nil
}

type nopNotifier struct{}

func (nopNotifier) NotifyReceipt(context.Context, domain.Receipt) error { return nil }

func mustMethod(id string) domain.PaymentMethod {
	m, err := domain.LookupPaymentMethod(id)
	if err != nil {
		panic(err)
	}
	return m
}
