package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	financemem "sensei-backoffice/internal/finance/infrastructure/memory"
	posapp "sensei-backoffice/internal/pos/application"
	pos "sensei-backoffice/internal/pos/domain"
	"sensei-backoffice/internal/pos/infrastructure/memory"
)

func newTestHandler(t *testing.T) (*POSHandler, *financemem.EntryRepository) {
	t.Helper()
	stock := 2
	ledger := financemem.NewEntryRepository(time.UTC)
	catalog := memory.NewCatalog(ledger,
		pos.Product{ID: "p-belt", Name: "Faixa", Price: decimal.NewFromInt(45), StockQuantity: &stock},
	)
	service, err := posapp.NewService(catalog, catalog)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	handler, err := NewPOSHandler(service)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler, ledger
}

func do(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestPOSHandler_Checkout(t *testing.T) {
	handler, ledger := newTestHandler(t)

	rec := do(handler, http.MethodPost, "/api/v1/pos/checkout", `{"items":[{"product_id":"p-belt","quantity":2}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", rec.Code, rec.Body.String())
	}
	var receipt posapp.Receipt
	if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !receipt.Sale.Total.Equal(decimal.NewFromInt(90)) || receipt.Entry.Category != "PDV" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if len(ledger.All()) != 1 {
		t.Fatalf("expected one ledger entry")
	}

	rec = do(handler, http.MethodPost, "/api/v1/pos/checkout", `{"items":[{"product_id":"p-belt","quantity":1}]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 once stock is gone, got %d", rec.Code)
	}
	rec = do(handler, http.MethodPost, "/api/v1/pos/checkout", `{"items":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", rec.Code)
	}
	rec = do(handler, http.MethodGet, "/api/v1/pos/checkout", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestPOSHandler_Products(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := do(handler, http.MethodPost, "/api/v1/pos/products", `{"name":"Bandagem","price":"12.90"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created pos.Product
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = do(handler, http.MethodGet, "/api/v1/pos/products", "")
	var list struct {
		Products []pos.Product `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Products) != 2 || list.Products[0].Name != "Bandagem" {
		t.Fatalf("unexpected products: %+v", list.Products)
	}

	rec = do(handler, http.MethodPost, "/api/v1/pos/products", `{"name":"","price":"1"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"name"`) {
		t.Fatalf("expected name field error, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(handler, http.MethodDelete, "/api/v1/pos/products/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := do(handler, http.MethodGet, "/api/v1/pos/products/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := do(handler, http.MethodGet, "/api/v1/pos/sales", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
