// Package logkey holds the attribute names used for structured logging so
// the same keys show up across every handler and store.
package logkey

const (
	TraceID   = "trace_id"
	ERROR     = "error"
	UserID    = "user_id"
	ProductID = "product_id"
	OrderID   = "order_id"
	CartItem  = "cart_item_id"
)
