package cart

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-storefront/internal/domain"
)

var (
	taro = domain.CatalogItem{ID: 1, Name: "Taro Milk Tea", Price: domain.MustParsePrice("Rp15.000")}
	palm = domain.CatalogItem{ID: 2, Name: "Palm Sugar Latte", Price: domain.MustParsePrice("Rp18.000")}
	thai = domain.CatalogItem{ID: 3, Name: "Thai Tea", Price: domain.MustParsePrice("Rp15.000")}
)

func TestAdd_SameItemTwiceMakesOneLine(t *testing.T) {
	c := New()
	c.Add(taro)
	c.Add(taro)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, domain.Price(30000), c.Total())
	assert.Equal(t, 2, c.ItemCount())
}

func TestTotal_TwoDistinctItems(t *testing.T) {
	c := New()
	c.Add(palm)
	c.Add(taro)
	c.Add(taro)

	assert.Equal(t, domain.Price(48000), c.Total())
	assert.Equal(t, 3, c.ItemCount())
}

func TestDecrementOrRemove(t *testing.T) {
	c := New()
	c.Add(taro)
	c.Add(taro)
	c.Add(taro)

	c.DecrementOrRemove(taro.ID)
	assert.Equal(t, 2, c.Quantity(taro.ID))
	require.Len(t, c.Lines(), 1)

	c.DecrementOrRemove(taro.ID)
	c.DecrementOrRemove(taro.ID)
	assert.Equal(t, 0, c.Quantity(taro.ID))
	assert.True(t, c.IsEmpty())

	// unknown id is a no-op
	c.DecrementOrRemove(42)
	assert.True(t, c.IsEmpty())
}

func TestSetQuantity(t *testing.T) {
	c := New()
	c.Add(taro)

	c.SetQuantity(taro.ID, 5)
	assert.Equal(t, 5, c.Quantity(taro.ID))

	c.SetQuantity(palm.ID, 3)
	assert.Equal(t, 0, c.Quantity(palm.ID), "setQuantity never creates lines")

	c.SetQuantity(taro.ID, 0)
	assert.True(t, c.IsEmpty())

	c.Add(taro)
	c.SetQuantity(taro.ID, -4)
	assert.True(t, c.IsEmpty())
}

func TestQuantityIsCapped(t *testing.T) {
	c := New()
	c.Add(taro)

	c.SetQuantity(taro.ID, domain.MaxQuantity)
	assert.Equal(t, domain.MaxQuantity, c.Quantity(taro.ID))
	c.Add(taro)
	assert.Equal(t, domain.MaxQuantity, c.Quantity(taro.ID))

	c.SetQuantity(taro.ID, math.MaxInt64/10000)
	assert.Equal(t, domain.MaxQuantity, c.Quantity(taro.ID))
	assert.Equal(t, taro.Price.Mul(domain.MaxQuantity), c.Total())

	p, err := c.Snapshot(time.Now())
	require.NoError(t, err)
	assert.Greater(t, int64(p.Total), int64(0))
	assert.Equal(t, c.Total(), p.Total)
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	c.Add(taro)
	c.Add(palm)
	c.Add(palm)

	c.Remove(palm.ID)
	c.Remove(palm.ID)
	assert.Equal(t, 1, c.ItemCount())

	c.Add(thai)
	c.Clear()
	assert.Equal(t, 0, c.ItemCount())
	assert.Equal(t, domain.Price(0), c.Total())
	assert.Empty(t, c.Lines())
}

func TestLinesKeepFirstAddOrder(t *testing.T) {
	c := New()
	c.Add(thai)
	c.Add(taro)
	c.Add(palm)
	c.Add(thai)
	c.Remove(taro.ID)
	c.Add(taro)

	var ids []int
	for _, l := range c.Lines() {
		ids = append(ids, l.Item.ID)
	}
	assert.Equal(t, []int{thai.ID, palm.ID, taro.ID}, ids)
}

func TestSettle_KeepsUnpaidUnits(t *testing.T) {
	c := New()
	c.Add(taro)
	c.Add(taro)
	p, err := c.Snapshot(time.Now())
	require.NoError(t, err)

	c.Add(taro)
	c.Add(palm)
	c.Settle(p.Items)

	assert.Equal(t, 1, c.Quantity(taro.ID))
	assert.Equal(t, 1, c.Quantity(palm.ID))
	assert.Equal(t, domain.Price(33000), c.Total())

	c.Settle([]domain.CartLine{{Item: taro, Quantity: 5}, {Item: thai, Quantity: 1}})
	assert.Equal(t, 0, c.Quantity(taro.ID))
	assert.Equal(t, []domain.CartLine{{Item: palm, Quantity: 1}}, c.Lines())
}

func TestLinesAreCopies(t *testing.T) {
	c := New()
	c.Add(taro)
	lines := c.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 1, c.Quantity(taro.ID))
}

func TestTotalMatchesLinesUnderRandomOps(t *testing.T) {
	items := []domain.CatalogItem{taro, palm, thai}
	rnd := rand.New(rand.NewSource(7))
	c := New()

	for i := 0; i < 2000; i++ {
		it := items[rnd.Intn(len(items))]
		switch rnd.Intn(5) {
		case 0, 1:
			c.Add(it)
		case 2:
			c.DecrementOrRemove(it.ID)
		case 3:
			if rnd.Intn(10) == 0 {
				c.SetQuantity(it.ID, domain.MaxQuantity+rnd.Intn(1<<20))
			} else {
				c.SetQuantity(it.ID, rnd.Intn(6)-1)
			}
		case 4:
			c.Remove(it.ID)
		}

		var want domain.Price
		count := 0
		for _, l := range c.Lines() {
			require.GreaterOrEqual(t, l.Quantity, 1)
			require.LessOrEqual(t, l.Quantity, domain.MaxQuantity)
			want += l.Item.Price.Mul(l.Quantity)
			count += l.Quantity
		}
		require.Equal(t, want, c.Total())
		require.GreaterOrEqual(t, int64(c.Total()), int64(0))
		require.Equal(t, count, c.ItemCount())
	}
}

func TestSnapshot(t *testing.T) {
	c := New()
	_, err := c.Snapshot(time.Now())
	assert.ErrorIs(t, err, ErrEmptyCart)

	c.Add(taro)
	c.Add(taro)
	now := time.Date(2026, 10, 17, 7, 0, 0, 0, time.UTC)
	p, err := c.Snapshot(now)
	require.NoError(t, err)
	assert.Equal(t, domain.Price(30000), p.Total)
	assert.Equal(t, now, p.Timestamp)
	require.Len(t, p.Items, 1)
	assert.Equal(t, 2, p.Items[0].Quantity)
}
