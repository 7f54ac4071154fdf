package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-storefront/internal/domain"
)

func TestOpenDefault(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)

	assert.Len(t, c.Items(), 7)
	assert.Equal(t, "Drink", c.DefaultCategory())
	assert.Equal(t, []string{"Drink", "Coffee", "Fruity", "Go"}, c.Categories())

	it, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Palm Sugar Milk Coffee", it.Name)
	assert.Equal(t, domain.Price(18000), it.Price)
	assert.True(t, it.IsPopular)
	assert.Equal(t, "20%", it.Discount)

	_, err = c.Get(99)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestFilter(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)

	assert.Len(t, c.Filter("Drink", ""), 7, "the all-items tab lists everything")
	assert.Len(t, c.Filter("", ""), 7)
	assert.Len(t, c.Filter("Coffee", ""), 2)
	assert.Empty(t, c.Filter("Fruity", ""))

	got := c.Filter("Drink", "  TEA ")
	var names []string
	for _, it := range got {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"Taro Milk Tea", "Green Tea", "Thai Tea Original"}, names)

	got = c.Filter("Coffee", "milk")
	require.Len(t, got, 2)

	assert.Empty(t, c.Filter("Coffee", "green"))
}

func TestFeatured(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)

	var ids []int
	for _, it := range c.Featured() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int{1, 2, 6, 7}, ids)
	assert.True(t, c.HasCategory("Go"))
	assert.False(t, c.HasCategory("Tea"))
}

func TestLoad_RejectsMalformedPrice(t *testing.T) {
	_, err := Load(strings.NewReader(`
items:
  - id: 1
    name: Kopi
    price: Rp18,000
`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
	assert.Contains(t, err.Error(), "item 1")
}

func TestLoad_RejectsDuplicatesAndBlankNames(t *testing.T) {
	_, err := Load(strings.NewReader(`
items:
  - {id: 1, name: Kopi, price: Rp10.000}
  - {id: 1, name: Teh, price: Rp8.000}
`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = Load(strings.NewReader(`
items:
  - {id: 2, name: " ", price: Rp10.000}
`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = Load(strings.NewReader(`items: [`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}
