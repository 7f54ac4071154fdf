package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-storefront/internal/domain"
	"coffee-storefront/internal/microservices/checkout"
	"coffee-storefront/internal/microservices/handoff"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupSessionTest(t *testing.T) (*Manager, *fakeClock, *[]string) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	var evicted []string
	m := NewManager(30*time.Minute,
		WithClock(clock.Now),
		WithEvictHook(func(s *Session) { evicted = append(evicted, s.ID) }),
	)
	return m, clock, &evicted
}

func TestGetOrCreate(t *testing.T) {
	m, _, _ := setupSessionTest(t)

	s, created := m.GetOrCreate("")
	require.True(t, created)
	require.NotEmpty(t, s.ID)

	again, created := m.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := m.GetOrCreate("forged-id")
	assert.True(t, created)
	assert.NotEqual(t, "forged-id", other.ID)
	assert.Equal(t, 2, m.Len())
}

func TestSweep_EvictsIdleSessionsOnly(t *testing.T) {
	m, clock, evicted := setupSessionTest(t)
	idle, _ := m.GetOrCreate("")
	clock.Advance(20 * time.Minute)
	busy, _ := m.GetOrCreate("")

	clock.Advance(15 * time.Minute)
	_, ok := m.Get(busy.ID)
	require.True(t, ok)

	assert.Equal(t, 1, m.Sweep())
	_, ok = m.Get(idle.ID)
	assert.False(t, ok)
	_, ok = m.Get(busy.ID)
	assert.True(t, ok)
	assert.Equal(t, []string{idle.ID}, *evicted)
}

func TestSweep_CancelsInFlightPayment(t *testing.T) {
	m, clock, _ := setupSessionTest(t)
	store := handoff.NewMemoryStore()
	svc := checkout.NewCheckoutService(store, nil, checkout.WithDelay(time.Hour))

	s, _ := m.GetOrCreate("")
	item := domain.CatalogItem{ID: 3, Name: "Coffee Milk", Price: domain.MustParsePrice("Rp12.000")}
	s.Do(func(s *Session) { s.Cart.Add(item) })

	var snapshotErr error
	s.Do(func(s *Session) {
		p, err := s.Cart.Snapshot(clock.Now())
		if err != nil {
			snapshotErr = err
			return
		}
		snapshotErr = store.Publish(context.Background(), s.ID, p)
	})
	require.NoError(t, snapshotErr)

	co, err := svc.Begin(context.Background(), s.ID)
	require.NoError(t, err)
	require.NoError(t, co.Submit(domain.CustomerInfo{Name: "Sari", Phone: "0812"}, "cash"))
	s.Do(func(s *Session) { s.Checkout = co })

	clock.Advance(time.Hour)
	m.Sweep()
	assert.Equal(t, checkout.StateCollecting, co.State())
}

func TestToggleFavorite(t *testing.T) {
	m, _, _ := setupSessionTest(t)
	s, _ := m.GetOrCreate("")

	s.Do(func(s *Session) {
		assert.True(t, s.ToggleFavorite(7))
		assert.True(t, s.ToggleFavorite(2))
		assert.Equal(t, []int{2, 7}, s.FavoriteIDs())
		assert.False(t, s.ToggleFavorite(7))
		assert.Equal(t, []int{2}, s.FavoriteIDs())
	})
}

func TestRunJanitor_StopsWithContext(t *testing.T) {
	m, _, _ := setupSessionTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.RunJanitor(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
