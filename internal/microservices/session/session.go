// Package session holds per-visitor storefront state: cart, favourites and
// the checkout in progress.
//
// A session is created on the first request without a known cookie,
// refreshed on every request and evicted after an idle TTL. A completed
// payment clears its cart.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/microservices/cart"
	"coffee-storefront/internal/microservices/checkout"
)

const CookieName = "storefront_session"

// Session fields are guarded by the session mutex; touch them inside Do.
type Session struct {
	ID        string
	Cart      *cart.Cart
	Favorites map[int]bool
	Checkout  *checkout.Checkout

	mu       sync.Mutex
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Cart:      cart.New(),
		Favorites: make(map[int]bool),
		lastSeen:  now,
	}
}

// Do runs fn with the session locked.
func (s *Session) Do(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// ToggleFavorite flips id and reports whether it is now a favourite.
// Call inside Do.
func (s *Session) ToggleFavorite(id int) bool {
	if s.Favorites[id] {
		delete(s.Favorites, id)
		return false
	}
	s.Favorites[id] = true
	return true
}

// FavoriteIDs lists favourites in ascending order. Call inside Do.
func (s *Session) FavoriteIDs() []int {
	ids := make([]int, 0, len(s.Favorites))
	for id := range s.Favorites {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CancelPayment stops an in-flight payment, if any. Call inside Do.
func (s *Session) CancelPayment() bool {
	if s.Checkout == nil {
		return false
	}
	return s.Checkout.Cancel()
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	onEvict  func(*Session)
	log      *logger.Logger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithEvictHook runs fn for every session the janitor removes, after its
// payment has been cancelled.
func WithEvictHook(fn func(*Session)) Option { return func(m *Manager) { m.onEvict = fn } }

func NewManager(ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		log:      logger.New("session"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = m.now()
	return s, true
}

// GetOrCreate returns the session for id, or a fresh one under a new id
// when id is empty or unknown. created reports the latter.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := m.Get(id); ok {
		return s, false
	}
	now := m.now()
	s = newSession(uuid.NewString(), now)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Debug("session_created", map[string]any{"session_id": s.ID})
	return s, true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Do(func(s *Session) { s.CancelPayment() })
		if m.onEvict != nil {
			m.onEvict(s)
		}
	}
	if len(expired) > 0 {
		m.log.Info("sessions_evicted", map[string]any{"count": len(expired), "live": m.Len()})
	}
	return len(expired)
}

// RunJanitor sweeps every interval until ctx ends.
func (m *Manager) RunJanitor(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep()
		}
	}
}
