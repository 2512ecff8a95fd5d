// Package catalog holds the fixed product list sales are recorded against.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"salesjournal/internal/core"
)

//go:embed default_catalog.json
var defaultCatalog []byte

// Catalog is an ordered, read-only product list indexed by name.
type Catalog struct {
	products []core.Product
	byName   map[string]int
}

// New validates products and builds a catalog. Names must be unique.
func New(products []core.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]core.Product, 0, len(products)),
		byName:   make(map[string]int, len(products)),
	}
	for i, p := range products {
		p.Name = strings.TrimSpace(p.Name)
		p.Category = strings.TrimSpace(p.Category)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %d (%q): %w", i, p.Name, err)
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate product name %q", p.Name)
		}
		c.byName[p.Name] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog, ".json")
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file. Files ending in .yaml or .yml are decoded as
// YAML, anything else as JSON. An empty path yields the embedded catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog payload; ext selects the format.
func Parse(data []byte, ext string) (*Catalog, error) {
	var products []core.Product
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &products); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, err
		}
	}
	return New(products)
}

// Lookup returns the product with the given name.
func (c *Catalog) Lookup(name string) (core.Product, bool) {
	i, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return core.Product{}, false
	}
	return c.products[i], true
}

// Products returns a copy of the catalog in its original order.
func (c *Catalog) Products() []core.Product {
	out := make([]core.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }
