package cart

import (
	"time"

	"ecommerce-backend/internal/products"
)

// Item is one pending-purchase line: (user, product, quantity). One row per
// (user, product) pair; adding the same product again accumulates quantity.
type Item struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	ProductID int64             `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Product   *products.Product `json:"product,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type NewItem struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required"`
}

type UpdateItem struct {
	Quantity int `json:"quantity" validate:"required"`
}
