package pos

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func stock(n int) *int { return &n }

func TestPriceCart(t *testing.T) {
	catalog := map[string]Product{
		"p-water": {ID: "p-water", Name: "Água", Price: decimal.RequireFromString("3.50"), StockQuantity: stock(10)},
		"p-belt":  {ID: "p-belt", Name: "Faixa", Price: decimal.NewFromInt(45), StockQuantity: stock(1)},
		"p-class": {ID: "p-class", Name: "Aula avulsa", Price: decimal.NewFromInt(40)},
	}

	cases := []struct {
		name    string
		cart    []CartLine
		total   string
		lines   int
		wantErr error
	}{
		{name: "merges repeated products", cart: []CartLine{{"p-water", 2}, {"p-class", 1}, {"p-water", 1}}, total: "50.5", lines: 2},
		{name: "untracked stock is unlimited", cart: []CartLine{{"p-class", 99}}, total: "3960", lines: 1},
		{name: "empty cart", wantErr: ErrEmptyCart},
		{name: "zero quantity", cart: []CartLine{{"p-water", 0}}, wantErr: ErrInvalidQuantity},
		{name: "merged quantity over stock", cart: []CartLine{{"p-belt", 1}, {"p-belt", 1}}, wantErr: ErrInsufficientStock},
		{name: "unknown product", cart: []CartLine{{"p-gi", 1}}, wantErr: ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lines, total, err := PriceCart(catalog, tc.cart)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("price cart: %v", err)
			}
			if len(lines) != tc.lines || !total.Equal(decimal.RequireFromString(tc.total)) {
				t.Fatalf("unexpected result: %+v total %s", lines, total)
			}
		})
	}
}
