package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-backend/internal/products"
	"ecommerce-backend/pkg/apperror"

	"github.com/shopspring/decimal"
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

// AddItemToCart validates and upserts a (user, product) line. The product
// row is locked for the duration of the transaction so the stock the
// validation saw cannot shrink underneath the write.
func (c *Conf) AddItemToCart(ctx context.Context, userID int64, ni NewItem) (Item, error) {
	var item Item
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		product, err := productForUpdate(ctx, tx, ni.ProductID)
		if err != nil {
			return err
		}

		existing, err := cartLineByProduct(ctx, tx, userID, ni.ProductID)
		if err != nil {
			return err
		}

		next, err := resolveAddQuantity(product, existing, ni.Quantity)
		if err != nil {
			return err
		}

		if existing != nil {
			query := `
				UPDATE cart_items
				SET quantity = $1, updated_at = now()
				WHERE id = $2
				RETURNING id, user_id, product_id, quantity, created_at, updated_at
			`
			return tx.QueryRowContext(ctx, query, next, existing.ID).
				Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
		}

		query := `
			INSERT INTO cart_items (user_id, product_id, quantity)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, product_id, quantity, created_at, updated_at
		`
		return tx.QueryRowContext(ctx, query, userID, ni.ProductID, next).
			Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

// UpdateCartItem replaces a line's quantity. Lines belonging to other users
// surface as not found, never as forbidden.
func (c *Conf) UpdateCartItem(ctx context.Context, userID, itemID int64, quantity int) (Item, error) {
	var item Item
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := cartLineByID(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}

		var product *products.Product
		if existing != nil {
			product, err = productForUpdate(ctx, tx, existing.ProductID)
			if err != nil {
				return err
			}
		}

		if err := resolveUpdateQuantity(existing, product, quantity); err != nil {
			return err
		}

		query := `
			UPDATE cart_items
			SET quantity = $1, updated_at = now()
			WHERE id = $2
			RETURNING id, user_id, product_id, quantity, created_at, updated_at
		`
		return tx.QueryRowContext(ctx, query, quantity, existing.ID).
			Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func (c *Conf) RemoveCartItem(ctx context.Context, userID, itemID int64) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.New(apperror.NotFound, "cart item not found")
	}
	return nil
}

// GetUserCart returns the user's lines newest first, each joined with its
// product for display.
func (c *Conf) GetUserCart(ctx context.Context, userID int64) ([]Item, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.id, p.name, p.description, p.price, p.stock, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		var p products.Product
		var description sql.NullString
		err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
			&p.ID, &p.Name, &description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		if description.Valid {
			p.Description = &description.String
		}
		item.Product = &p
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

func productForUpdate(ctx context.Context, tx *sql.Tx, productID int64) (*products.Product, error) {
	query := `
		SELECT id, name, description, price, stock
		FROM products
		WHERE id = $1
		FOR UPDATE
	`
	var p products.Product
	var description sql.NullString
	var price decimal.Decimal
	err := tx.QueryRowContext(ctx, query, productID).Scan(&p.ID, &p.Name, &description, &price, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	if description.Valid {
		p.Description = &description.String
	}
	p.Price = price
	return &p, nil
}

func cartLineByProduct(ctx context.Context, tx *sql.Tx, userID, productID int64) (*Item, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`
	var item Item
	err := tx.QueryRowContext(ctx, query, userID, productID).
		Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cart line: %w", err)
	}
	return &item, nil
}

func cartLineByID(ctx context.Context, tx *sql.Tx, userID, itemID int64) (*Item, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE id = $1 AND user_id = $2
	`
	var item Item
	err := tx.QueryRowContext(ctx, query, itemID, userID).
		Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cart line: %w", err)
	}
	return &item, nil
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
