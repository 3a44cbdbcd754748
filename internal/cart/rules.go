package cart

import (
	"ecommerce-backend/internal/products"
	"ecommerce-backend/pkg/apperror"
)

// resolveAddQuantity decides the quantity a cart line ends up with after an
// add. product is nil when the product row is absent; existing is nil when
// the user has no line for it yet.
func resolveAddQuantity(product *products.Product, existing *Item, requested int) (int, error) {
	if requested < 1 {
		return 0, apperror.New(apperror.Validation, "quantity must be greater than 0")
	}
	if product == nil {
		return 0, apperror.New(apperror.NotFound, "product not found")
	}

	next := requested
	if existing != nil {
		next = existing.Quantity + requested
	}
	if next > product.Stock {
		return 0, apperror.Newf(apperror.Conflict, "requested quantity exceeds available stock (%d)", product.Stock)
	}
	return next, nil
}

// resolveUpdateQuantity validates replacing a line's quantity. item is nil
// when no line with that id belongs to the caller; absence and foreign
// ownership are indistinguishable on purpose.
func resolveUpdateQuantity(item *Item, product *products.Product, requested int) error {
	if requested < 1 {
		return apperror.New(apperror.Validation, "quantity must be greater than 0")
	}
	if item == nil {
		return apperror.New(apperror.NotFound, "cart item not found")
	}
	if product == nil {
		return apperror.New(apperror.NotFound, "product not found")
	}
	if requested > product.Stock {
		return apperror.Newf(apperror.Conflict, "requested quantity exceeds available stock (%d)", product.Stock)
	}
	return nil
}
