package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"salesjournal/internal/core"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if c.Len() == 0 {
		t.Fatalf("embedded catalog is empty")
	}
	p, ok := c.Lookup("Coffee")
	if !ok || p.Category != "Beverage" || p.UnitPrice != 3.5 {
		t.Fatalf("unexpected Coffee entry %+v ok=%v", p, ok)
	}
	if _, ok := c.Lookup("Nope"); ok {
		t.Fatalf("unknown product should not resolve")
	}
}

func TestProductsReturnsCopy(t *testing.T) {
	c := Default()
	ps := c.Products()
	ps[0].UnitPrice = 999
	if got := c.Products()[0].UnitPrice; got == 999 {
		t.Fatalf("catalog mutated through Products()")
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	if _, err := New([]core.Product{{Name: "A", UnitPrice: 1}, {Name: "A", UnitPrice: 2}}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if _, err := New([]core.Product{{Name: "A", UnitPrice: -1}}); !errors.Is(err, core.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := New([]core.Product{{Name: " ", UnitPrice: 1}}); !errors.Is(err, core.ErrNoProduct) {
		t.Fatalf("expected ErrNoProduct, got %v", err)
	}
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	jsonPath := mustWrite("items.json", `[{"itemName":"Coffee","category":"Beverage","unitPrice":3.5},{"itemName":"Bagel","category":"Bakery","unitPrice":2}]`)
	c, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("Load json: %v", err)
	}
	if c.Len() != 2 || c.Products()[1].Name != "Bagel" {
		t.Fatalf("unexpected json catalog %+v", c.Products())
	}

	yamlPath := mustWrite("items.yaml", "- itemName: Tea\n  category: Beverage\n  unitPrice: 2.75\n")
	c, err = Load(yamlPath)
	if err != nil {
		t.Fatalf("Load yaml: %v", err)
	}
	if p, ok := c.Lookup("Tea"); !ok || p.UnitPrice != 2.75 {
		t.Fatalf("unexpected yaml entry %+v", p)
	}

	if _, err := Load(mustWrite("bad.json", "{")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected read error")
	}
	if c, err := Load(""); err != nil || c.Len() == 0 {
		t.Fatalf("empty path should load default catalog, err=%v", err)
	}
}
