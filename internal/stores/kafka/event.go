package kafka

import "time"

const TopicOrderPaid = `orders.order-paid`

// OrderPaidEvent is emitted once per order line after a checkout commits.
type OrderPaidEvent struct {
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}
