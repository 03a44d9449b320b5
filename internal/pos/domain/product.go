package pos

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is an item sold at the front desk. A nil StockQuantity means the
// stock is not tracked.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity *int            `json:"stock_quantity,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TracksStock reports whether sales decrement the product's stock.
func (p Product) TracksStock() bool { return p.StockQuantity != nil }

// CartLine is a quantity of one product in a cart.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SaleLine is a priced cart line.
type SaleLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Sale is a priced cart ready to be persisted.
type Sale struct {
	EntryID string          `json:"entry_id"`
	Date    time.Time       `json:"date"`
	Lines   []SaleLine      `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

// PriceCart turns a cart into sale lines using the catalog. Repeated products
// are merged before stock is checked. Lines keep the order in which products
// first appear in the cart.
func PriceCart(catalog map[string]Product, cart []CartLine) ([]SaleLine, decimal.Decimal, error) {
	if len(cart) == 0 {
		return nil, decimal.Zero, ErrEmptyCart
	}
	quantities := make(map[string]int, len(cart))
	order := make([]string, 0, len(cart))
	for _, line := range cart {
		if line.ProductID == "" {
			return nil, decimal.Zero, ErrEmptyID
		}
		if line.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidQuantity, line.ProductID)
		}
		if _, seen := quantities[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}

	total := decimal.Zero
	lines := make([]SaleLine, 0, len(order))
	for _, id := range order {
		product, ok := catalog[id]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		qty := quantities[id]
		if product.TracksStock() && *product.StockQuantity < qty {
			return nil, decimal.Zero, fmt.Errorf("%w: %s has %d, wanted %d", ErrInsufficientStock, product.Name, *product.StockQuantity, qty)
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		lines = append(lines, SaleLine{
			ProductID: id,
			Name:      product.Name,
			Quantity:  qty,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}
	return lines, total, nil
}
