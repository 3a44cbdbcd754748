package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-backend/internal/cart"
	"ecommerce-backend/internal/products"
	"ecommerce-backend/pkg/apperror"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// CreateOrderFromCart runs the checkout as one transaction. Product rows are
// read FOR UPDATE, which serializes concurrent checkouts touching the same
// product: the stock a checkout validates against cannot be decremented by a
// competing transaction before this one commits.
func (c *Conf) CreateOrderFromCart(ctx context.Context, userID int64) (*Order, error) {
	var order *Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		order, err = runCheckout(ctx, userID, txLedger{tx}, txCartLines{tx}, txOrderWriter{tx})
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindUserOrders lists the caller's order headers, newest first.
func (c *Conf) FindUserOrders(ctx context.Context, userID int64) ([]Order, error) {
	query := `
		SELECT id, user_id, status, total_price, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	list := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return list, nil
}

// FindUserOrderByID loads one of the caller's orders with its lines. An
// order that exists but belongs to someone else is reported as not found.
func (c *Conf) FindUserOrderByID(ctx context.Context, userID, orderID int64) (*Order, error) {
	query := `
		SELECT id, user_id, status, total_price, created_at
		FROM orders
		WHERE id = $1 AND user_id = $2
	`
	var o Order
	err := c.db.QueryRowContext(ctx, query, orderID, userID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "order not found")
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
		       p.id, p.name, p.description, p.price, p.stock, p.created_at, p.updated_at
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`
	rows, err := c.db.QueryContext(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		var p products.Product
		var pID sql.NullInt64
		var pName, pDescription sql.NullString
		var pPrice sql.NullString
		var pStock sql.NullInt64
		var pCreatedAt, pUpdatedAt sql.NullTime
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&pID, &pName, &pDescription, &pPrice, &pStock, &pCreatedAt, &pUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		// the referenced product may have been deleted since the purchase
		if pID.Valid {
			p.ID = pID.Int64
			p.Name = pName.String
			if pDescription.Valid {
				p.Description = &pDescription.String
			}
			if err := p.Price.Scan(pPrice.String); err != nil {
				return nil, fmt.Errorf("failed to scan product price: %w", err)
			}
			p.Stock = int(pStock.Int64)
			p.CreatedAt = pCreatedAt.Time
			p.UpdatedAt = pUpdatedAt.Time
			item.Product = &p
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return &o, nil
}

// Transaction-bound implementations of the checkout contracts.

type txLedger struct {
	tx *sql.Tx
}

func (l txLedger) FindByID(ctx context.Context, id int64) (*products.Product, error) {
	query := `
		SELECT id, name, description, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
		FOR UPDATE
	`
	var p products.Product
	var description sql.NullString
	err := l.tx.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query product for update: %w", err)
	}
	if description.Valid {
		p.Description = &description.String
	}
	return &p, nil
}

func (l txLedger) SaveAll(ctx context.Context, ps []*products.Product) error {
	for _, p := range ps {
		_, err := l.tx.ExecContext(ctx,
			`UPDATE products SET stock = $1, updated_at = now() WHERE id = $2`,
			p.Stock, p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update product stock: %w", err)
		}
	}
	return nil
}

type txCartLines struct {
	tx *sql.Tx
}

func (c txCartLines) FindByUser(ctx context.Context, userID int64) ([]cart.Item, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := c.tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var items []cart.Item
	for rows.Next() {
		var item cart.Item
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}
	return items, nil
}

func (c txCartLines) DeleteAll(ctx context.Context, items []cart.Item) error {
	for _, item := range items {
		if _, err := c.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, item.ID); err != nil {
			return fmt.Errorf("failed to delete cart line: %w", err)
		}
	}
	return nil
}

type txOrderWriter struct {
	tx *sql.Tx
}

func (w txOrderWriter) Save(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (user_id, status, total_price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := w.tx.QueryRowContext(ctx, query, o.UserID, o.Status, o.TotalPrice).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (w txOrderWriter) SaveAll(ctx context.Context, items []OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range items {
		err := w.tx.QueryRowContext(ctx, query,
			items[i].OrderID, items[i].ProductID, items[i].Quantity, items[i].UnitPrice,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback tx: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}
