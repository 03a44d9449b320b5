package migrations

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

func TestNames_Sorted(t *testing.T) {
	fsys := fstest.MapFS{
		"010_products.sql": {Data: []byte("SELECT 1;")},
		"001_init.sql":     {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("notes")},
	}
	names, err := Names(fsys)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 2 || names[0] != "001_init.sql" || names[1] != "010_products.sql" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestEmbeddedSchema(t *testing.T) {
	data, err := fs.ReadFile(FS(), "001_init.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, table := range []string{"transactions", "students", "fixed_expenses", "products", "audit_logs"} {
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("schema missing table %s", table)
		}
	}
}
