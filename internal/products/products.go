package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ecommerce-backend/pkg/apperror"
)

const (
	defaultLimit = 12
	maxLimit     = 100
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

func (c *Conf) InsertProduct(ctx context.Context, np NewProduct) (Product, error) {
	if np.Price.IsNegative() {
		return Product{}, apperror.New(apperror.Validation, "price must not be negative")
	}

	query := `
		INSERT INTO products (name, description, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, price, stock, created_at, updated_at
	`
	var p Product
	var description sql.NullString
	err := c.db.QueryRowContext(ctx, query, np.Name, np.Description, np.Price, np.Stock).
		Scan(&p.ID, &p.Name, &description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	if description.Valid {
		p.Description = &description.String
	}
	return p, nil
}

func (c *Conf) GetProductByID(ctx context.Context, id int64) (Product, error) {
	query := `
		SELECT id, name, description, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	var p Product
	var description sql.NullString
	err := c.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, apperror.New(apperror.NotFound, "product not found")
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	if description.Valid {
		p.Description = &description.String
	}

	images, err := c.imagesForProducts(ctx, []int64{p.ID})
	if err != nil {
		return Product{}, err
	}
	p.Images = images[p.ID]
	return p, nil
}

// UpdateProductInDB merges the provided fields onto the current row. The row
// is locked for the duration so a concurrent checkout cannot decrement stock
// between the read and the write below.
func (c *Conf) UpdateProductInDB(ctx context.Context, id int64, up UpdateProduct) (Product, error) {
	if up.Price != nil && up.Price.IsNegative() {
		return Product{}, apperror.New(apperror.Validation, "price must not be negative")
	}

	var p Product
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			SELECT id, name, description, price, stock, created_at, updated_at
			FROM products
			WHERE id = $1
			FOR UPDATE
		`
		var description sql.NullString
		err := tx.QueryRowContext(ctx, query, id).
			Scan(&p.ID, &p.Name, &description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.New(apperror.NotFound, "product not found")
			}
			return fmt.Errorf("failed to query product: %w", err)
		}
		if description.Valid {
			p.Description = &description.String
		}

		p = applyUpdate(p, up)

		update := `
			UPDATE products
			SET name = $1, description = $2, price = $3, stock = $4, updated_at = now()
			WHERE id = $5
			RETURNING updated_at
		`
		if err := tx.QueryRowContext(ctx, update, p.Name, p.Description, p.Price, p.Stock, id).Scan(&p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}

	images, err := c.imagesForProducts(ctx, []int64{p.ID})
	if err != nil {
		return Product{}, err
	}
	p.Images = images[p.ID]
	return p, nil
}

// applyUpdate overlays the non-nil fields; nil leaves the column as read.
func applyUpdate(p Product, up UpdateProduct) Product {
	if up.Name != nil {
		p.Name = *up.Name
	}
	if up.Description != nil {
		p.Description = up.Description
	}
	if up.Price != nil {
		p.Price = *up.Price
	}
	if up.Stock != nil {
		p.Stock = *up.Stock
	}
	return p
}

func (c *Conf) DeleteProductFromDB(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.New(apperror.NotFound, "product not found")
	}
	return nil
}

func (c *Conf) ListProductsFromDB(ctx context.Context, params ListParams) (ListResult, error) {
	params = params.clamp()

	where, args := listFilters(params)

	countQuery := `SELECT count(*) FROM products` + where
	var total int
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, description, price, stock, created_at, updated_at
		FROM products%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, where, params.Sort, params.Order, len(args)+1, len(args)+2)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	items := []Product{}
	var ids []int64
	for rows.Next() {
		var p Product
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return ListResult{}, fmt.Errorf("failed to scan product: %w", err)
		}
		if description.Valid {
			p.Description = &description.String
		}
		items = append(items, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("error iterating products: %w", err)
	}

	images, err := c.imagesForProducts(ctx, ids)
	if err != nil {
		return ListResult{}, err
	}
	for i := range items {
		items[i].Images = images[items[i].ID]
	}

	return ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// InsertProductImages appends image rows for a product, continuing the
// sort_order sequence from the rows already present.
func (c *Conf) InsertProductImages(ctx context.Context, productID int64, urls []string) (Product, error) {
	p, err := c.GetProductByID(ctx, productID)
	if err != nil {
		return Product{}, err
	}

	next := len(p.Images)
	for _, url := range urls {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO product_images (product_id, url, sort_order) VALUES ($1, $2, $3)`,
			productID, url, next,
		)
		if err != nil {
			return Product{}, fmt.Errorf("failed to insert product image: %w", err)
		}
		next++
	}

	return c.GetProductByID(ctx, productID)
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

func (c *Conf) imagesForProducts(ctx context.Context, ids []int64) (map[int64][]Image, error) {
	result := make(map[int64][]Image)
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, product_id, url, sort_order
		FROM product_images
		WHERE product_id IN (%s)
		ORDER BY product_id, sort_order
	`, strings.Join(placeholders, ", "))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		result[img.ProductID] = append(result[img.ProductID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}
	return result, nil
}

// clamp normalizes paging and sorting so the query never sees hostile input;
// sort and order are whitelisted because they are spliced into the SQL.
func (p ListParams) clamp() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Sort != "price" {
		p.Sort = "created_at"
	}
	if !strings.EqualFold(p.Order, "ASC") {
		p.Order = "DESC"
	} else {
		p.Order = "ASC"
	}
	return p
}

func listFilters(p ListParams) (string, []any) {
	var conditions []string
	var args []any

	if p.Query != "" {
		args = append(args, "%"+p.Query+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if p.MinPrice != nil {
		args = append(args, *p.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if p.MaxPrice != nil {
		args = append(args, *p.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
