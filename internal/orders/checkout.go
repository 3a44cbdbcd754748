package orders

import (
	"context"

	"ecommerce-backend/internal/cart"
	"ecommerce-backend/internal/products"
	"ecommerce-backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

// The checkout coordinates three collaborators through narrow contracts so
// its data dependencies stay visible at the interface. The SQL
// implementations bind all three to a single transaction; tests bind them to
// in-memory fakes.

// productLedger reads and persists live product price/stock.
// FindByID returns (nil, nil) when the product row is absent.
type productLedger interface {
	FindByID(ctx context.Context, id int64) (*products.Product, error)
	SaveAll(ctx context.Context, ps []*products.Product) error
}

// cartLines reads and clears the user's pending lines.
type cartLines interface {
	FindByUser(ctx context.Context, userID int64) ([]cart.Item, error)
	DeleteAll(ctx context.Context, items []cart.Item) error
}

// orderWriter persists the order header and its lines. Save fills in the
// generated id and creation timestamp.
type orderWriter interface {
	Save(ctx context.Context, o *Order) error
	SaveAll(ctx context.Context, items []OrderItem) error
}

// runCheckout converts all of userID's cart lines into one PAID order:
// re-read each product for its authoritative price and stock, validate,
// decrement stock, write the order with unit prices snapshotted from that
// read, clear the cart. Any error aborts the whole sequence; the caller's
// transaction guarantees nothing is left behind.
func runCheckout(ctx context.Context, userID int64, ledger productLedger, lines cartLines, writer orderWriter) (*Order, error) {
	items, err := lines.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperror.New(apperror.Validation, "cart is empty")
	}

	total := decimal.Zero
	touched := make([]*products.Product, 0, len(items))
	orderItems := make([]OrderItem, 0, len(items))

	for _, item := range items {
		product, err := ledger.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, apperror.Newf(apperror.NotFound, "product with id %d no longer exists", item.ProductID)
		}
		if item.Quantity > product.Stock {
			return nil, apperror.Newf(apperror.Conflict, "not enough stock for product %q", product.Name)
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		product.Stock -= item.Quantity
		touched = append(touched, product)

		orderItems = append(orderItems, OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			Product:   product,
		})
	}

	if err := ledger.SaveAll(ctx, touched); err != nil {
		return nil, err
	}

	order := &Order{
		UserID:     userID,
		Status:     StatusPaid,
		TotalPrice: total.Round(2),
	}
	if err := writer.Save(ctx, order); err != nil {
		return nil, err
	}

	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	if err := writer.SaveAll(ctx, orderItems); err != nil {
		return nil, err
	}

	if err := lines.DeleteAll(ctx, items); err != nil {
		return nil, err
	}

	order.Items = orderItems
	return order, nil
}
