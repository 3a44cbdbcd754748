package cart

import (
	"testing"

	"ecommerce-backend/internal/products"
	"ecommerce-backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testProduct(stock int) *products.Product {
	return &products.Product{
		ID:    1,
		Name:  "Mug",
		Price: decimal.RequireFromString("10.00"),
		Stock: stock,
	}
}

func TestResolveAddQuantityNewLine(t *testing.T) {
	next, err := resolveAddQuantity(testProduct(5), nil, 2)
	require.NoError(t, err)
	require.Equal(t, 2, next)
}

func TestResolveAddQuantityAccumulates(t *testing.T) {
	// a second add for the same product grows the one existing line
	existing := &Item{ID: 10, UserID: 1, ProductID: 1, Quantity: 2}
	next, err := resolveAddQuantity(testProduct(5), existing, 3)
	require.NoError(t, err)
	require.Equal(t, 5, next)
}

func TestResolveAddQuantityInvalid(t *testing.T) {
	for _, quantity := range []int{0, -1} {
		_, err := resolveAddQuantity(testProduct(5), nil, quantity)
		require.Error(t, err)
		require.Equal(t, apperror.Validation, apperror.KindOf(err))
	}
}

func TestResolveAddQuantityProductMissing(t *testing.T) {
	_, err := resolveAddQuantity(nil, nil, 1)
	require.Error(t, err)
	require.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestResolveAddQuantityExceedsStock(t *testing.T) {
	existing := &Item{Quantity: 4}
	_, err := resolveAddQuantity(testProduct(5), existing, 2)
	require.Error(t, err)
	require.Equal(t, apperror.Conflict, apperror.KindOf(err))
	require.Contains(t, err.Error(), "(5)", "error names the current stock")
}

func TestResolveUpdateQuantity(t *testing.T) {
	item := &Item{ID: 10, UserID: 1, ProductID: 1, Quantity: 2}

	require.NoError(t, resolveUpdateQuantity(item, testProduct(5), 5))

	err := resolveUpdateQuantity(item, testProduct(5), 6)
	require.Equal(t, apperror.Conflict, apperror.KindOf(err))

	err = resolveUpdateQuantity(item, testProduct(5), 0)
	require.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestResolveUpdateQuantityForeignLineIsNotFound(t *testing.T) {
	// a line that belongs to another user is loaded as nil; the caller must
	// see not-found, not forbidden
	err := resolveUpdateQuantity(nil, testProduct(5), 1)
	require.Error(t, err)
	require.Equal(t, apperror.NotFound, apperror.KindOf(err))
}
