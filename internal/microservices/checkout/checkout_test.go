package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-storefront/internal/domain"
	"coffee-storefront/internal/microservices/handoff"
)

var fixedNow = time.Date(2026, 3, 1, 2, 5, 9, 0, time.UTC)

type checkoutFixture struct {
	svc      *CheckoutService
	store    *handoff.MemoryStore
	notifier *mockNotifier
	hooked   chan domain.Receipt
}

func setupCheckoutTest(t *testing.T, delay time.Duration) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		store:    handoff.NewMemoryStore(),
		notifier: &mockNotifier{},
		hooked:   make(chan domain.Receipt, 4),
	}
	f.svc = NewCheckoutService(f.store, f.notifier,
		WithDelay(delay),
		WithClock(func() time.Time { return fixedNow }),
		WithCompletionHook(func(_ string, r domain.Receipt) { f.hooked <- r }),
	)
	return f
}

func taroPayload() domain.CheckoutPayload {
	taro := domain.CatalogItem{ID: 2, Name: "Taro Milk Tea", Price: domain.MustParsePrice("Rp15.000")}
	return domain.CheckoutPayload{
		Items:     []domain.CartLine{{Item: taro, Quantity: 2}},
		Total:     30000,
		Timestamp: fixedNow,
	}
}

func (f *checkoutFixture) begin(t *testing.T) *Checkout {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Publish(ctx, "sid", taroPayload()))
	c, err := f.svc.Begin(ctx, "sid")
	require.NoError(t, err)
	return c
}

func waitFor(t *testing.T, c *Checkout) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func TestBegin_NoPendingOrder(t *testing.T) {
	f := setupCheckoutTest(t, time.Millisecond)

	_, err := f.svc.Begin(context.Background(), "sid")
	assert.ErrorIs(t, err, handoff.ErrNoPendingOrder)
}

func TestBegin_MalformedPayload(t *testing.T) {
	f := setupCheckoutTest(t, time.Millisecond)
	f.store.PutRaw("sid", []byte(`{"items":"nope"}`))

	_, err := f.svc.Begin(context.Background(), "sid")
	assert.ErrorIs(t, err, handoff.ErrMalformedPayload)
}

func TestSubmit_RejectsIncompleteCustomerInfo(t *testing.T) {
	f := setupCheckoutTest(t, time.Millisecond)
	c := f.begin(t)

	for _, info := range []domain.CustomerInfo{
		{Name: "", Phone: "08123"},
		{Name: "Sari", Phone: "   "},
		{Notes: "only notes"},
	} {
		err := c.Submit(info, "cash")
		assert.ErrorIs(t, err, domain.ErrIncompleteCustomerInfo)
		assert.Equal(t, StateCollecting, c.State())
	}
}

func TestSubmit_UnknownMethod(t *testing.T) {
	f := setupCheckoutTest(t, time.Millisecond)
	c := f.begin(t)

	err := c.Submit(domain.CustomerInfo{Name: "Sari", Phone: "0812"}, "bitcoin")
	assert.ErrorIs(t, err, domain.ErrUnknownPaymentMethod)
	assert.Equal(t, StateCollecting, c.State())
}

func TestSubmit_CompletesAndClearsHandoff(t *testing.T) {
	f := setupCheckoutTest(t, 10*time.Millisecond)
	c := f.begin(t)

	require.NoError(t, c.Submit(domain.CustomerInfo{Name: " Sari ", Phone: "08123456789"}, "cash"))
	assert.Equal(t, StateProcessing, c.State())
	waitFor(t, c)

	assert.Equal(t, StateComplete, c.State())
	r, ok := c.Receipt()
	require.True(t, ok)
	assert.Equal(t, "Sari", r.Customer.Name)
	assert.Equal(t, domain.Price(30000), r.Total)
	assert.Equal(t, "Tunai", r.PaymentMethod)
	require.Len(t, r.Items, 1)
	assert.Equal(t, 2, r.Items[0].Quantity)
	assert.Equal(t, "ORD1772330709000", r.OrderID)

	_, err := f.store.Consume(context.Background(), "sid")
	assert.ErrorIs(t, err, handoff.ErrNoPendingOrder)

	assert.Equal(t, []string{r.OrderID}, f.notifier.orderIDs())
	select {
	case got := <-f.hooked:
		assert.Equal(t, r.OrderID, got.OrderID)
	case <-time.After(time.Second):
		t.Fatal("completion hook not called")
	}
}

func TestStatusNotBlockedBySlowHandoffClear(t *testing.T) {
	store := &blockingClearStore{MemoryStore: handoff.NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewCheckoutService(store, nil, WithDelay(time.Millisecond))
	require.NoError(t, store.Publish(context.Background(), "sid", taroPayload()))
	c, err := svc.Begin(context.Background(), "sid")
	require.NoError(t, err)

	require.NoError(t, c.Submit(domain.CustomerInfo{Name: "Sari", Phone: "0812"}, "cash"))
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("hand-off clear never started")
	}

	status := make(chan State, 1)
	go func() { status <- c.Status().State }()
	select {
	case st := <-status:
		assert.Equal(t, StateProcessing, st)
	case <-time.After(time.Second):
		t.Fatal("Status blocked behind the hand-off clear")
	}

	cancelled := make(chan bool, 1)
	go func() { cancelled <- c.Cancel() }()
	select {
	case <-cancelled:
		t.Fatal("Cancel returned while completion was committing")
	case <-time.After(20 * time.Millisecond):
	}

	close(store.release)
	assert.False(t, <-cancelled)
	waitFor(t, c)
	assert.Equal(t, StateComplete, c.State())
}

func TestSubmit_NotesAreOptional(t *testing.T) {
	f := setupCheckoutTest(t, time.Millisecond)
	c := f.begin(t)

	require.NoError(t, c.Submit(domain.CustomerInfo{Name: "Sari", Phone: "0812", Notes: "no ice"}, "qris"))
	waitFor(t, c)

	r, ok := c.Receipt()
	require.True(t, ok)
	assert.Equal(t, "no ice", r.Notes)
	assert.Equal(t, "QRIS", r.PaymentMethod)
}

func TestSubmit_DuplicateWhileProcessing(t *testing.T) {
	f := setupCheckoutTest(t, time.Hour)
	c := f.begin(t)
	info := domain.CustomerInfo{Name: "Sari", Phone: "0812"}

	require.NoError(t, c.Submit(info, "cash"))
	assert.ErrorIs(t, c.Submit(info, "cash"), ErrAlreadyProcessing)
	assert.True(t, c.Cancel())
}

func TestSubmit_AfterComplete(t *testing.T) {
	f := setupCheckoutTest(t, time.Millisecond)
	c := f.begin(t)
	info := domain.CustomerInfo{Name: "Sari", Phone: "0812"}

	require.NoError(t, c.Submit(info, "cash"))
	waitFor(t, c)
	assert.ErrorIs(t, c.Submit(info, "cash"), ErrAlreadyComplete)
}

func TestCancel_ReturnsToCollectingAndKeepsHandoff(t *testing.T) {
	f := setupCheckoutTest(t, 50*time.Millisecond)
	c := f.begin(t)

	require.NoError(t, c.Submit(domain.CustomerInfo{Name: "Sari", Phone: "0812"}, "gopay"))
	assert.True(t, c.Cancel())
	assert.Equal(t, StateCollecting, c.State())
	waitFor(t, c)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, StateCollecting, c.State())
	_, ok := c.Receipt()
	assert.False(t, ok)
	assert.Empty(t, f.notifier.orderIDs())

	_, err := f.store.Consume(context.Background(), "sid")
	assert.NoError(t, err)

	assert.False(t, c.Cancel())
}

func TestCancel_ThenResubmit(t *testing.T) {
	f := setupCheckoutTest(t, 10*time.Millisecond)
	c := f.begin(t)
	info := domain.CustomerInfo{Name: "Sari", Phone: "0812"}

	require.NoError(t, c.Submit(info, "cash"))
	require.True(t, c.Cancel())
	require.NoError(t, c.Submit(info, "dana"))
	waitFor(t, c)

	r, ok := c.Receipt()
	require.True(t, ok)
	assert.Equal(t, "DANA", r.PaymentMethod)
	assert.Len(t, f.notifier.orderIDs(), 1)
}

func TestNotifierFailureDoesNotUndoCompletion(t *testing.T) {
	f := setupCheckoutTest(t, time.Millisecond)
	f.notifier.err = errors.New("broker down")
	c := f.begin(t)

	require.NoError(t, c.Submit(domain.CustomerInfo{Name: "Sari", Phone: "0812"}, "cash"))
	waitFor(t, c)
	assert.Equal(t, StateComplete, c.State())
}

func TestStatus_And_Total(t *testing.T) {
	f := setupCheckoutTest(t, time.Hour)
	c := f.begin(t)

	st := c.Status()
	assert.Equal(t, StateCollecting, st.State)
	assert.Equal(t, "cash", st.PaymentMethod)
	assert.Equal(t, domain.Price(30000), st.Total)
	assert.Equal(t, 2, st.ItemCount)
	assert.Empty(t, st.OrderID)
	assert.Equal(t, domain.Price(30000), c.Total("qris"))
}

func TestWait_NothingStarted(t *testing.T) {
	f := setupCheckoutTest(t, time.Millisecond)
	c := f.begin(t)
	assert.NoError(t, c.Wait(context.Background()))
}

func TestOrderIDs_StrictlyIncreasing(t *testing.T) {
	ids := NewOrderIDs(func() time.Time { return fixedNow })

	a, b, c := ids.Next(), ids.Next(), ids.Next()
	assert.Equal(t, "ORD1772330709000", a)
	assert.Equal(t, "ORD1772330709001", b)
	assert.Equal(t, "ORD1772330709002", c)
}

func TestOrderIDs_Concurrent(t *testing.T) {
	ids := NewOrderIDs(nil)
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ids.Next()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

// --- Mocks ---

type blockingClearStore struct {
	*handoff.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingClearStore) Clear(ctx context.Context, sessionID string) error {
	close(s.entered)
	<-s.release
	return s.MemoryStore.Clear(ctx, sessionID)
}

type mockNotifier struct {
	mu       sync.Mutex
	receipts []domain.Receipt
	err      error
}

func (m *mockNotifier) NotifyReceipt(_ context.Context, r domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, r)
	return m.err
}

func (m *mockNotifier) orderIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, r := range m.receipts {
		ids = append(ids, r.OrderID)
	}
	return ids
}
