package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	finance "sensei-backoffice/internal/finance/domain"
	financepg "sensei-backoffice/internal/finance/infrastructure/postgres"
	pos "sensei-backoffice/internal/pos/domain"
)

// ProductRepository persists the catalog in the products table and commits
// checkouts together with their ledger entry.
type ProductRepository struct {
	db        *sql.DB
	entryOpts []financepg.EntryOption
}

// NewProductRepository constructs a repository. entryOpts configure the
// ledger writer used inside checkout transactions.
func NewProductRepository(db *sql.DB, entryOpts ...financepg.EntryOption) *ProductRepository {
	return &ProductRepository{db: db, entryOpts: entryOpts}
}

func (r *ProductRepository) List(ctx context.Context) ([]pos.Product, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("product repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, price, stock_quantity, image_url, created_at
FROM products
ORDER BY lower(name), id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pos.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *product)
	}
	return out, rows.Err()
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*pos.Product, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("product repo: nil db")
	}
	product, err := scanProduct(r.db.QueryRowContext(ctx, `
SELECT id, name, price, stock_quantity, image_url, created_at
FROM products
WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) Save(ctx context.Context, product *pos.Product) error {
	if r == nil || r.db == nil {
		return errors.New("product repo: nil db")
	}
	if product == nil {
		return errors.New("product repo: nil product")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	var stock sql.NullInt64
	if product.StockQuantity != nil {
		stock = sql.NullInt64{Int64: int64(*product.StockQuantity), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO products (id, name, price, stock_quantity, image_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	stock_quantity = EXCLUDED.stock_quantity,
	image_url = EXCLUDED.image_url`,
		product.ID,
		product.Name,
		product.Price,
		stock,
		sql.NullString{String: product.ImageURL, Valid: product.ImageURL != ""},
		product.CreatedAt,
	)
	return err
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("product repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pos.ErrNotFound
	}
	return nil
}

// Checkout decrements tracked stock with a guarded UPDATE per line and inserts
// the income entry in the same transaction.
func (r *ProductRepository) Checkout(ctx context.Context, sale *pos.Sale, income *finance.Entry) error {
	if r == nil || r.db == nil {
		return errors.New("product repo: nil db")
	}
	if sale == nil || income == nil {
		return errors.New("product repo: nil sale")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, line := range sale.Lines {
		res, err := tx.ExecContext(ctx, `
UPDATE products
SET stock_quantity = stock_quantity - $2
WHERE id = $1 AND (stock_quantity IS NULL OR stock_quantity >= $2)`, line.ProductID, line.Quantity)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if affected == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, line.ProductID).Scan(&exists)
			_ = tx.Rollback()
			switch {
			case err != nil:
				return err
			case !exists:
				return fmt.Errorf("%w: product %s", pos.ErrNotFound, line.ProductID)
			}
			return fmt.Errorf("%w: %s", pos.ErrInsufficientStock, line.Name)
		}
	}
	if err := financepg.NewEntryRepository(tx, r.entryOpts...).Create(ctx, income); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*pos.Product, error) {
	var (
		product pos.Product
		stock   sql.NullInt64
		image   sql.NullString
	)
	if err := row.Scan(&product.ID, &product.Name, &product.Price, &stock, &image, &product.CreatedAt); err != nil {
		return nil, err
	}
	if stock.Valid {
		qty := int(stock.Int64)
		product.StockQuantity = &qty
	}
	product.ImageURL = image.String
	product.CreatedAt = product.CreatedAt.UTC()
	return &product, nil
}
