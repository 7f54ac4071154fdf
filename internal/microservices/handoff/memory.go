package handoff

import (
	"context"
	"sync"

	"coffee-storefront/internal/domain"
)

// MemoryStore keeps serialized payloads in process memory, one per session.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Publish(_ context.Context, sessionID string, p domain.CheckoutPayload) error {
	b, err := Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[sessionID] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, sessionID string) (domain.CheckoutPayload, error) {
	s.mu.Lock()
	b, ok := s.docs[sessionID]
	s.mu.Unlock()
	if !ok {
		return domain.CheckoutPayload{}, ErrNoPendingOrder
	}
	return Decode(b)
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.docs, sessionID)
	s.mu.Unlock()
	return nil
}

// PutRaw stores text as-is, bypassing validation.
func (s *MemoryStore) PutRaw(sessionID string, raw []byte) {
	s.mu.Lock()
	s.docs[sessionID] = raw
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
