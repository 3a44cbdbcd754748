package products

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestClampDefaults(t *testing.T) {
	p := ListParams{}.clamp()
	require.Equal(t, 1, p.Page)
	require.Equal(t, defaultLimit, p.Limit)
	require.Equal(t, "created_at", p.Sort)
	require.Equal(t, "DESC", p.Order)
}

func TestClampLimits(t *testing.T) {
	p := ListParams{Page: -3, Limit: 5000}.clamp()
	require.Equal(t, 1, p.Page)
	require.Equal(t, maxLimit, p.Limit)

	p = ListParams{Page: 7, Limit: 20}.clamp()
	require.Equal(t, 7, p.Page)
	require.Equal(t, 20, p.Limit)
}

func TestClampWhitelistsSortAndOrder(t *testing.T) {
	p := ListParams{Sort: "price", Order: "asc"}.clamp()
	require.Equal(t, "price", p.Sort)
	require.Equal(t, "ASC", p.Order)

	// anything outside the whitelist falls back to the defaults
	p = ListParams{Sort: "stock; DROP TABLE products", Order: "sideways"}.clamp()
	require.Equal(t, "created_at", p.Sort)
	require.Equal(t, "DESC", p.Order)
}

func TestApplyUpdatePartialEditKeepsStock(t *testing.T) {
	current := Product{
		Name:  "mug",
		Price: decimal.RequireFromString("10.00"),
		Stock: 3,
	}

	// a name/price edit must not touch stock, which another transaction
	// may have decremented since the caller last saw the product
	name := "enamel mug"
	price := decimal.RequireFromString("12.50")
	merged := applyUpdate(current, UpdateProduct{Name: &name, Price: &price})

	require.Equal(t, "enamel mug", merged.Name)
	require.True(t, merged.Price.Equal(price))
	require.Equal(t, 3, merged.Stock)
	require.Nil(t, merged.Description)
}

func TestApplyUpdateSetsAllProvidedFields(t *testing.T) {
	current := Product{Name: "mug", Stock: 3}

	desc := "stoneware"
	stock := 10
	merged := applyUpdate(current, UpdateProduct{Description: &desc, Stock: &stock})

	require.Equal(t, "mug", merged.Name)
	require.Equal(t, "stoneware", *merged.Description)
	require.Equal(t, 10, merged.Stock)
}

func TestListFilters(t *testing.T) {
	where, args := listFilters(ListParams{})
	require.Empty(t, where)
	require.Empty(t, args)

	min := decimal.RequireFromString("1.50")
	max := decimal.RequireFromString("99.99")
	where, args = listFilters(ListParams{Query: "mug", MinPrice: &min, MaxPrice: &max})
	require.Equal(t, " WHERE (name ILIKE $1 OR description ILIKE $1) AND price >= $2 AND price <= $3", where)
	require.Len(t, args, 3)
	require.Equal(t, "%mug%", args[0])
}
