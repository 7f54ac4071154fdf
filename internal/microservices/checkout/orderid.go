package checkout

import (
	"strconv"
	"sync"
	"time"
)

// OrderIDs hands out "ORD" + unix milliseconds. Two orders completing in the
// same millisecond get consecutive values, so ids are strictly increasing
// within a process.
type OrderIDs struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewOrderIDs(now func() time.Time) *OrderIDs {
	if now == nil {
		now = time.Now
	}
	return &OrderIDs{now: now}
}

func (g *OrderIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return "ORD" + strconv.FormatInt(ms, 10)
}
