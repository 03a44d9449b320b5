package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/observability/metrics"
	pos "sensei-backoffice/internal/pos/domain"
	"sensei-backoffice/internal/validation"
)

// SaleDescription is the ledger description of every checkout.
const SaleDescription = "Venda"

// Clock provides current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name          string          `json:"name" validate:"required,notblank,max=120"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity *int            `json:"stock_quantity"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url,max=500"`
}

// Receipt is the outcome of a checkout.
type Receipt struct {
	Sale  pos.Sale      `json:"sale"`
	Entry finance.Entry `json:"entry"`
}

// Service runs the front-desk point of sale.
type Service struct {
	products pos.ProductRepository
	checkout pos.CheckoutRepository
	clock    Clock
	loc      *time.Location
	newID    func() string
	logger   *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the zone that decides the sale date.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a Service.
func NewService(products pos.ProductRepository, checkout pos.CheckoutRepository, opts ...Option) (*Service, error) {
	if products == nil || checkout == nil {
		return nil, errors.New("pos service: nil repository")
	}
	s := &Service{
		products: products,
		checkout: checkout,
		clock:    SystemClock{},
		loc:      time.UTC,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Products returns the catalog by name.
func (s *Service) Products(ctx context.Context) ([]pos.Product, error) {
	return s.products.List(ctx)
}

// Product loads one product.
func (s *Service) Product(ctx context.Context, id string) (*pos.Product, error) {
	if id == "" {
		return nil, pos.ErrEmptyID
	}
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pos.ErrNotFound
	}
	return product, nil
}

// CreateProduct adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*pos.Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}
	product := &pos.Product{ID: s.newID(), CreatedAt: s.clock.Now()}
	applyProductInput(product, input)
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct overwrites a product.
func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) (*pos.Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}
	product, err := s.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductInput(product, input)
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product. Past sales keep their ledger entries.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return pos.ErrEmptyID
	}
	return s.products.Delete(ctx, id)
}

func validateProduct(input ProductInput) error {
	if input.Price.IsNegative() {
		return pos.ErrInvalidPrice
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return pos.ErrInvalidStock
	}
	return validation.Struct(input)
}

func applyProductInput(product *pos.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Price = input.Price
	product.ImageURL = strings.TrimSpace(input.ImageURL)
	product.StockQuantity = nil
	if input.StockQuantity != nil {
		qty := *input.StockQuantity
		product.StockQuantity = &qty
	}
}

// Checkout prices the cart, then records one paid "[PDV] Venda" income dated
// today and decrements stock in a single repository call.
func (s *Service) Checkout(ctx context.Context, cart []pos.CartLine) (receipt *Receipt, err error) {
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		metrics.IncCheckout(result)
	}()

	catalog := make(map[string]pos.Product, len(cart))
	for _, line := range cart {
		if line.ProductID == "" {
			continue
		}
		if _, ok := catalog[line.ProductID]; ok {
			continue
		}
		product, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			catalog[product.ID] = *product
		}
	}
	lines, total, err := pos.PriceCart(catalog, cart)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := finance.CivilDate(now, s.loc)
	income := finance.Entry{
		ID:          s.newID(),
		Type:        finance.EntryTypeIncome,
		Category:    finance.CategoryPOS,
		Description: SaleDescription,
		Amount:      total,
		Status:      finance.EntryStatusPaid,
		DueDate:     &today,
		CreatedAt:   now,
	}
	sale := pos.Sale{EntryID: income.ID, Date: today, Lines: lines, Total: total}
	if err := s.checkout.Checkout(ctx, &sale, &income); err != nil {
		if s.logger != nil {
			s.logger.Printf("pos checkout error: total=%s err=%v", total.StringFixed(2), err)
		}
		return nil, err
	}
	return &Receipt{Sale: sale, Entry: income}, nil
}
