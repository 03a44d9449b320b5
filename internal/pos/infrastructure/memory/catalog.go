package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	finance "sensei-backoffice/internal/finance/domain"
	pos "sensei-backoffice/internal/pos/domain"
)

// EntryWriter stores ledger entries.
type EntryWriter interface {
	Create(ctx context.Context, entry *finance.Entry) error
}

// Catalog is an in-memory product catalog. Checkouts write their income
// entry through ledger.
type Catalog struct {
	mu       sync.Mutex
	products map[string]pos.Product
	ledger   EntryWriter
}

// NewCatalog constructs a catalog.
func NewCatalog(ledger EntryWriter, seed ...pos.Product) *Catalog {
	c := &Catalog{products: make(map[string]pos.Product, len(seed)), ledger: ledger}
	for _, p := range seed {
		c.products[p.ID] = cloneProduct(p)
	}
	return c
}

// List returns products by name.
func (c *Catalog) List(_ context.Context) ([]pos.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]pos.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (c *Catalog) Get(_ context.Context, id string) (*pos.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	clone := cloneProduct(p)
	return &clone, nil
}

func (c *Catalog) Save(_ context.Context, product *pos.Product) error {
	if product == nil || product.ID == "" {
		return pos.ErrEmptyID
	}
	c.mu.Lock()
	c.products[product.ID] = cloneProduct(*product)
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[id]; !ok {
		return pos.ErrNotFound
	}
	delete(c.products, id)
	return nil
}

// Checkout verifies stock, writes the income entry and only then decrements
// stock, all under the catalog lock.
func (c *Catalog) Checkout(ctx context.Context, sale *pos.Sale, income *finance.Entry) error {
	if sale == nil || income == nil {
		return errors.New("catalog: nil sale")
	}
	if c.ledger == nil {
		return errors.New("catalog: nil ledger")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range sale.Lines {
		p, ok := c.products[line.ProductID]
		if !ok {
			return fmt.Errorf("%w: product %s", pos.ErrNotFound, line.ProductID)
		}
		if p.TracksStock() && *p.StockQuantity < line.Quantity {
			return fmt.Errorf("%w: %s", pos.ErrInsufficientStock, p.Name)
		}
	}
	if err := c.ledger.Create(ctx, income); err != nil {
		return err
	}
	for _, line := range sale.Lines {
		p := c.products[line.ProductID]
		if p.TracksStock() {
			left := *p.StockQuantity - line.Quantity
			p.StockQuantity = &left
			c.products[line.ProductID] = p
		}
	}
	return nil
}

func cloneProduct(p pos.Product) pos.Product {
	if p.StockQuantity != nil {
		qty := *p.StockQuantity
		p.StockQuantity = &qty
	}
	return p
}
