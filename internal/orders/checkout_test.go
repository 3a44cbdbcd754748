package orders

import (
	"context"
	"testing"
	"time"

	"ecommerce-backend/internal/cart"
	"ecommerce-backend/internal/products"
	"ecommerce-backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// In-memory fakes for the checkout contracts. FindByID hands out copies the
// way a SQL read does, so mutations only land in the ledger via SaveAll.

type fakeLedger struct {
	products map[int64]products.Product
}

func (f *fakeLedger) FindByID(_ context.Context, id int64) (*products.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (f *fakeLedger) SaveAll(_ context.Context, ps []*products.Product) error {
	for _, p := range ps {
		f.products[p.ID] = *p
	}
	return nil
}

type fakeCartLines struct {
	items []cart.Item
}

func (f *fakeCartLines) FindByUser(_ context.Context, userID int64) ([]cart.Item, error) {
	var out []cart.Item
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeCartLines) DeleteAll(_ context.Context, items []cart.Item) error {
	for _, del := range items {
		for i, item := range f.items {
			if item.ID == del.ID {
				f.items = append(f.items[:i], f.items[i+1:]...)
				break
			}
		}
	}
	return nil
}

type fakeOrderWriter struct {
	orders []Order
	items  []OrderItem
	nextID int64
}

func (f *fakeOrderWriter) Save(_ context.Context, o *Order) error {
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now().UTC()
	f.orders = append(f.orders, *o)
	return nil
}

func (f *fakeOrderWriter) SaveAll(_ context.Context, items []OrderItem) error {
	for i := range items {
		items[i].ID = int64(len(f.items) + 1)
		f.items = append(f.items, items[i])
	}
	return nil
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func twoProductFixture() (*fakeLedger, *fakeCartLines, *fakeOrderWriter) {
	ledger := &fakeLedger{products: map[int64]products.Product{
		1: {ID: 1, Name: "A", Price: money("10.00"), Stock: 5},
		2: {ID: 2, Name: "B", Price: money("3.50"), Stock: 1},
	}}
	lines := &fakeCartLines{items: []cart.Item{
		{ID: 100, UserID: 7, ProductID: 1, Quantity: 2},
		{ID: 101, UserID: 7, ProductID: 2, Quantity: 1},
	}}
	return ledger, lines, &fakeOrderWriter{}
}

func TestCheckoutEmptyCart(t *testing.T) {
	ledger := &fakeLedger{products: map[int64]products.Product{}}
	lines := &fakeCartLines{}
	writer := &fakeOrderWriter{}

	_, err := runCheckout(context.Background(), 7, ledger, lines, writer)
	require.Error(t, err)
	require.Equal(t, apperror.Validation, apperror.KindOf(err))
	require.Empty(t, writer.orders, "no order may exist after an empty-cart checkout")
}

func TestCheckoutSuccess(t *testing.T) {
	ledger, lines, writer := twoProductFixture()

	order, err := runCheckout(context.Background(), 7, ledger, lines, writer)
	require.NoError(t, err)

	require.Equal(t, StatusPaid, order.Status)
	require.True(t, order.TotalPrice.Equal(money("23.50")), "got total %s", order.TotalPrice)
	require.Len(t, order.Items, 2)
	require.True(t, order.Items[0].UnitPrice.Equal(money("10.00")))
	require.True(t, order.Items[1].UnitPrice.Equal(money("3.50")))

	require.Equal(t, 3, ledger.products[1].Stock)
	require.Equal(t, 0, ledger.products[2].Stock)

	remaining, err := lines.FindByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Empty(t, remaining, "cart must be empty after checkout")

	require.Len(t, writer.orders, 1)
	require.Len(t, writer.items, 2)
	for _, item := range writer.items {
		require.Equal(t, order.ID, item.OrderID)
	}
}

func TestCheckoutInsufficientStockLeavesEverythingUnchanged(t *testing.T) {
	ledger, lines, writer := twoProductFixture()
	b := ledger.products[2]
	b.Stock = 0
	ledger.products[2] = b

	_, err := runCheckout(context.Background(), 7, ledger, lines, writer)
	require.Error(t, err)
	require.Equal(t, apperror.Conflict, apperror.KindOf(err))
	require.Contains(t, err.Error(), `"B"`, "error names the product that is short")

	// no partial effects: A validated before B, but its stock is untouched
	require.Equal(t, 5, ledger.products[1].Stock)
	require.Equal(t, 0, ledger.products[2].Stock)
	require.Len(t, lines.items, 2, "cart must remain intact")
	require.Empty(t, writer.orders)
	require.Empty(t, writer.items)
}

func TestCheckoutProductGone(t *testing.T) {
	ledger, lines, writer := twoProductFixture()
	delete(ledger.products, 2)

	_, err := runCheckout(context.Background(), 7, ledger, lines, writer)
	require.Error(t, err)
	require.Equal(t, apperror.NotFound, apperror.KindOf(err))
	require.Equal(t, 5, ledger.products[1].Stock)
	require.Empty(t, writer.orders)
}

func TestCheckoutOnlyTouchesCallersCart(t *testing.T) {
	ledger, lines, writer := twoProductFixture()
	lines.items = append(lines.items, cart.Item{ID: 102, UserID: 8, ProductID: 1, Quantity: 1})

	_, err := runCheckout(context.Background(), 7, ledger, lines, writer)
	require.NoError(t, err)

	other, err := lines.FindByUser(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, other, 1, "another user's cart must survive")
}

func TestCheckoutUnitPriceFrozen(t *testing.T) {
	ledger, lines, writer := twoProductFixture()

	order, err := runCheckout(context.Background(), 7, ledger, lines, writer)
	require.NoError(t, err)

	// a later price change must not rewrite history
	a := ledger.products[1]
	a.Price = money("99.99")
	ledger.products[1] = a

	require.True(t, order.Items[0].UnitPrice.Equal(money("10.00")))
	require.True(t, writer.items[0].UnitPrice.Equal(money("10.00")))
}

func TestCheckoutDecimalTotal(t *testing.T) {
	// 0.1*3 drifts under binary floating point; decimals must not
	ledger := &fakeLedger{products: map[int64]products.Product{
		1: {ID: 1, Name: "Sticker", Price: money("0.10"), Stock: 10},
	}}
	lines := &fakeCartLines{items: []cart.Item{
		{ID: 100, UserID: 7, ProductID: 1, Quantity: 3},
	}}

	order, err := runCheckout(context.Background(), 7, ledger, lines, &fakeOrderWriter{})
	require.NoError(t, err)
	require.Equal(t, "0.30", order.TotalPrice.StringFixed(2))
}
