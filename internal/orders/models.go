package orders

import (
	"time"

	"ecommerce-backend/internal/products"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// Order is immutable once written; there is no update path.
type Order struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Status     Status          `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []OrderItem     `json:"items,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderItem freezes the unit price at purchase time. Product is a weak
// reference: it is nil when the product row has since been deleted.
type OrderItem struct {
	ID        int64             `json:"id"`
	OrderID   int64             `json:"order_id"`
	ProductID int64             `json:"product_id"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Product   *products.Product `json:"product,omitempty"`
}
