package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"coffee-storefront/internal/domain"
)

var (
	ErrAlreadyProcessing = errors.New("payment already in progress")
	ErrAlreadyComplete   = errors.New("order already complete")
)

type State string

const (
	StateCollecting State = "collecting"
	StateProcessing State = "processing"
	StateComplete   State = "complete"
)

// sideEffectTimeout bounds the hand-off clear and the notification that run
// once the payment delay has elapsed.
const sideEffectTimeout = 5 * time.Second

// Checkout is one visitor's payment attempt for a consumed payload.
//
// Collecting -> Processing on an accepted Submit, Processing -> Complete when
// the delay elapses, Processing -> Collecting on Cancel. Complete is final.
type Checkout struct {
	svc       *CheckoutService
	sessionID string
	payload   domain.CheckoutPayload

	// commitMu is held by the payment task from the moment it commits to
	// completing until the state is Complete. Cancel takes it first, so a
	// cancel never lands between the hand-off clear and the state change.
	commitMu sync.Mutex

	mu       sync.Mutex
	state    State
	customer domain.CustomerInfo
	method   domain.PaymentMethod
	receipt  *domain.Receipt
	cancel   context.CancelFunc
	done     chan struct{}
}

// Status is a point-in-time view of a checkout.
type Status struct {
	State         State               `json:"state"`
	OrderID       string              `json:"order_id,omitempty"`
	Customer      domain.CustomerInfo `json:"customer"`
	PaymentMethod string              `json:"payment_method"`
	Subtotal      domain.Price        `json:"subtotal"`
	Total         domain.Price        `json:"total"`
	ItemCount     int                 `json:"item_count"`
}

func (c *Checkout) Payload() domain.CheckoutPayload { return c.payload }

func (c *Checkout) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Checkout) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		State:         c.state,
		Customer:      c.customer,
		PaymentMethod: c.method.ID,
		Subtotal:      c.payload.Total,
		Total:         c.payload.Total + c.method.Fee,
		ItemCount:     c.payload.ItemCount(),
	}
	if c.receipt != nil {
		st.OrderID = c.receipt.OrderID
	}
	return st
}

// Total is the subtotal plus the fee of methodID, or of the current method
// when methodID is empty or unknown.
func (c *Checkout) Total(methodID string) domain.Price {
	c.mu.Lock()
	m := c.method
	c.mu.Unlock()
	if methodID != "" {
		if pm, err := domain.LookupPaymentMethod(methodID); err == nil {
			m = pm
		}
	}
	return c.payload.Total + m.Fee
}

func (c *Checkout) Receipt() (domain.Receipt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.receipt == nil {
		return domain.Receipt{}, false
	}
	return *c.receipt, true
}

// Submit validates the customer form and starts the payment. A rejected
// submission leaves the checkout untouched.
func (c *Checkout) Submit(info domain.CustomerInfo, methodID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateProcessing:
		return ErrAlreadyProcessing
	case StateComplete:
		return ErrAlreadyComplete
	}

	info = info.Normalize()
	if err := info.Validate(); err != nil {
		return err
	}
	if methodID == "" {
		methodID = domain.DefaultPaymentMethod
	}
	m, err := domain.LookupPaymentMethod(methodID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.state = StateProcessing
	c.customer = info
	c.method = m
	c.cancel = cancel
	c.done = done

	c.svc.log.Info("payment_started", map[string]any{
		"session_id": c.sessionID, "payment_method": m.ID, "total": int64(c.payload.Total + m.Fee),
	})
	go c.process(ctx, done)
	return nil
}

// Cancel stops an in-flight payment and returns to Collecting. It reports
// whether there was anything to cancel. The hand-off is left untouched.
func (c *Checkout) Cancel() bool {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProcessing {
		return false
	}
	c.cancel()
	c.cancel = nil
	c.state = StateCollecting
	c.svc.log.Info("payment_cancelled", map[string]any{"session_id": c.sessionID})
	return true
}

// Wait blocks until the current payment task has exited or ctx ends.
func (c *Checkout) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Checkout) process(ctx context.Context, done chan struct{}) {
	defer close(done)

	select {
	case <-time.After(c.svc.delay):
	case <-ctx.Done():
		return
	}

	c.commitMu.Lock()
	// Cancel may have won the race for the lock after the timer fired.
	if ctx.Err() != nil {
		c.commitMu.Unlock()
		return
	}
	// Status only needs c.mu and keeps answering during the clear.
	c.clearHandoff()
	c.mu.Lock()
	r := c.buildReceipt()
	c.receipt = &r
	c.state = StateComplete
	c.cancel = nil
	c.mu.Unlock()
	c.commitMu.Unlock()

	c.svc.log.Info("payment_completed", map[string]any{
		"session_id": c.sessionID, "order_id": r.OrderID, "total": int64(r.Total),
	})

	nctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := c.svc.notifier.NotifyReceipt(nctx, r); err != nil {
		c.svc.log.Error("receipt_notify_failed", err, map[string]any{"order_id": r.OrderID})
	}
	if c.svc.hook != nil {
		c.svc.hook(c.sessionID, r)
	}
}

func (c *Checkout) clearHandoff() {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := c.svc.store.Clear(ctx, c.sessionID); err != nil {
		c.svc.log.Error("handoff_clear_failed", err, map[string]any{"session_id": c.sessionID})
	}
}

func (c *Checkout) buildReceipt() domain.Receipt {
	items := make([]domain.CartLine, len(c.payload.Items))
	copy(items, c.payload.Items)
	return domain.Receipt{
		OrderID:       c.svc.ids.Next(),
		Customer:      c.customer,
		Items:         items,
		Subtotal:      c.payload.Total,
		PaymentMethod: c.method.Name,
		Fee:           c.method.Fee,
		Total:         c.payload.Total + c.method.Fee,
		Timestamp:     c.svc.now(),
		Notes:         c.customer.Notes,
	}
}
