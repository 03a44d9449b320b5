package pos

import (
	"context"

	finance "sensei-backoffice/internal/finance/domain"
)

// ProductRepository persists the catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
}

// CheckoutRepository commits a sale: stock of tracked products is decremented
// and the income entry is written, atomically. Implementations fail with
// ErrInsufficientStock when stock changed since the cart was priced and with
// ErrNotFound when a product was deleted meanwhile.
type CheckoutRepository interface {
	Checkout(ctx context.Context, sale *Sale, income *finance.Entry) error
}
