package integration

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	academyreader "sensei-backoffice/internal/finance/adapters/academy"
	financeapp "sensei-backoffice/internal/finance/application"
	finance "sensei-backoffice/internal/finance/domain"
	financepg "sensei-backoffice/internal/finance/infrastructure/postgres"
	posapp "sensei-backoffice/internal/pos/application"
	pos "sensei-backoffice/internal/pos/domain"
	pospg "sensei-backoffice/internal/pos/infrastructure/postgres"
	"sensei-backoffice/migrations"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)
	return db
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	names, err := migrations.Names(migrations.FS())
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	for _, name := range names {
		data, err := fs.ReadFile(migrations.FS(), name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if _, err := db.Exec(string(data)); err != nil {
			t.Fatalf("apply %s: %v", name, err)
		}
	}
}

func TestLedger_SettleFixedExpenseGhost(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	clock := fixedClock{now: time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)}

	templates := financepg.NewFixedExpenseRepository(db)
	entries := financepg.NewEntryRepository(db, financepg.WithTimeZone("UTC"))
	template := &finance.FixedExpense{
		ID:          "it-" + uuid.NewString(),
		Category:    "Aluguel",
		Description: "Sala principal",
		Amount:      decimal.RequireFromString("2000.00"),
		DueDay:      10,
		Active:      true,
		CreatedAt:   clock.now,
	}
	if err := templates.Save(ctx, template); err != nil {
		t.Fatalf("save template: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM transactions WHERE fixed_expense_id = $1", template.ID)
		_, _ = db.Exec("DELETE FROM fixed_expenses WHERE id = $1", template.ID)
	})

	ledger, err := financeapp.NewLedgerService(entries, templates, academyreader.NewSubscriptionReader(db),
		financeapp.WithLocation(time.UTC),
		financeapp.WithClock(clock),
	)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	period, err := ledger.ResolvePeriod(finance.PresetCurrentMonth)
	if err != nil {
		t.Fatalf("period: %v", err)
	}

	ghostID := finance.FixedExpenseGhostID(template.ID, finance.ClampDueDate(2026, time.March, 10))
	if !containsEntry(t, ledger, period, ghostID) {
		t.Fatalf("expected projected entry %s", ghostID)
	}

	settled, err := ledger.Settle(ctx, ghostID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != finance.EntryStatusPaid || settled.FixedExpenseID != template.ID {
		t.Fatalf("unexpected settled entry: %+v", settled)
	}
	if containsEntry(t, ledger, period, ghostID) {
		t.Fatalf("projection should disappear after settle")
	}
	if !containsEntry(t, ledger, period, settled.ID) {
		t.Fatalf("settled entry missing from ledger")
	}
	if _, err := ledger.Settle(ctx, ghostID); !errors.Is(err, finance.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
}

func containsEntry(t *testing.T, ledger *financeapp.LedgerService, period finance.Period, id string) bool {
	t.Helper()
	view, err := ledger.Ledger(context.Background(), period)
	if err != nil {
		t.Fatalf("ledger view: %v", err)
	}
	for _, e := range view.Entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func TestPOS_CheckoutWritesIncomeAndStock(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	clock := fixedClock{now: time.Date(2026, time.March, 16, 15, 0, 0, 0, time.UTC)}

	repo := pospg.NewProductRepository(db, financepg.WithTimeZone("UTC"))
	service, err := posapp.NewService(repo, repo, posapp.WithClock(clock), posapp.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	stock := 2
	product, err := service.CreateProduct(ctx, posapp.ProductInput{
		Name:          "Faixa branca " + uuid.NewString()[:8],
		Price:         decimal.RequireFromString("45.00"),
		StockQuantity: &stock,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	var entryIDs []string
	t.Cleanup(func() {
		for _, id := range entryIDs {
			_, _ = db.Exec("DELETE FROM transactions WHERE id = $1", id)
		}
		_, _ = db.Exec("DELETE FROM products WHERE id = $1", product.ID)
	})

	if _, err := service.Checkout(ctx, []pos.CartLine{{ProductID: product.ID, Quantity: 3}}); !errors.Is(err, pos.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	receipt, err := service.Checkout(ctx, []pos.CartLine{{ProductID: product.ID, Quantity: 2}})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	entryIDs = append(entryIDs, receipt.Entry.ID)
	if !receipt.Sale.Total.Equal(decimal.RequireFromString("90")) {
		t.Fatalf("unexpected total %s", receipt.Sale.Total)
	}

	stored, err := repo.Get(ctx, product.ID)
	if err != nil || stored == nil {
		t.Fatalf("get product: %v", err)
	}
	if stored.StockQuantity == nil || *stored.StockQuantity != 0 {
		t.Fatalf("expected stock 0, got %v", stored.StockQuantity)
	}

	var category, status string
	var amount decimal.Decimal
	if err := db.QueryRow("SELECT category, status, amount FROM transactions WHERE id = $1", receipt.Entry.ID).Scan(&category, &status, &amount); err != nil {
		t.Fatalf("load income: %v", err)
	}
	if category != finance.CategoryPOS || status != string(finance.EntryStatusPaid) || !amount.Equal(decimal.RequireFromString("90")) {
		t.Fatalf("unexpected income row: %s %s %s", category, status, amount)
	}
}

func TestPOS_CheckoutOfDeletedProductIsNotFound(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	repo := pospg.NewProductRepository(db, financepg.WithTimeZone("UTC"))
	stock := 5
	product := &pos.Product{
		ID:            "it-" + uuid.NewString(),
		Name:          "Kimono A2",
		Price:         decimal.RequireFromString("350.00"),
		StockQuantity: &stock,
		CreatedAt:     time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := repo.Save(ctx, product); err != nil {
		t.Fatalf("save product: %v", err)
	}
	if err := repo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	today := finance.Date(2026, time.March, 16)
	entryID := uuid.NewString()
	t.Cleanup(func() { _, _ = db.Exec("DELETE FROM transactions WHERE id = $1", entryID) })
	sale := &pos.Sale{
		EntryID: entryID,
		Date:    today,
		Lines:   []pos.SaleLine{{ProductID: product.ID, Name: product.Name, Quantity: 1, UnitPrice: product.Price, Subtotal: product.Price}},
		Total:   product.Price,
	}
	income := &finance.Entry{
		ID:        entryID,
		Type:      finance.EntryTypeIncome,
		Category:  finance.CategoryPOS,
		Amount:    product.Price,
		Status:    finance.EntryStatusPaid,
		DueDate:   &today,
		CreatedAt: time.Date(2026, time.March, 16, 15, 0, 0, 0, time.UTC),
	}

	err := repo.Checkout(ctx, sale, income)
	if !errors.Is(err, pos.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, pos.ErrInsufficientStock) {
		t.Fatalf("deleted product reported as a stock shortfall: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM transactions WHERE id = $1", entryID).Scan(&count); err != nil {
		t.Fatalf("count income: %v", err)
	}
	if count != 0 {
		t.Fatalf("income must not be written, found %d rows", count)
	}
}
