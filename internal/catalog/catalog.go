// Package catalog holds the static menu offered by the bot: categories,
// products and the quantity labels each product can be bought in.
package catalog

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/types"
)

// PriceOption is one purchasable quantity of a product.
type PriceOption struct {
	Label string
	Price int
}

// Product is a menu entry.
type Product struct {
	Name     string
	ImageURL string
	Options  []PriceOption
}

// Category groups products under a single menu button.
type Category struct {
	Name     string
	Products []string
}

// Catalog is an immutable, ordered menu.
type Catalog struct {
	categories []Category
	products   map[string]Product
	menuImage  string
}

// New validates and indexes a menu. Product names must be unique and every
// category entry must reference a known product.
func New(categories []Category, products []Product, menuImage string) (*Catalog, error) {
	index := make(map[string]Product, len(products))
	for _, p := range products {
		if p.Name == "" {
			return nil, fmt.Errorf("product name required")
		}
		if _, dup := index[p.Name]; dup {
			return nil, fmt.Errorf("duplicate product %q", p.Name)
		}
		seen := make(map[string]struct{}, len(p.Options))
		for _, opt := range p.Options {
			if _, dup := seen[opt.Label]; dup {
				return nil, fmt.Errorf("product %q: duplicate quantity %q", p.Name, opt.Label)
			}
			if opt.Price <= 0 {
				return nil, fmt.Errorf("product %q: price for %q must be positive", p.Name, opt.Label)
			}
			seen[opt.Label] = struct{}{}
		}
		index[p.Name] = p
	}
	for _, c := range categories {
		for _, name := range c.Products {
			if _, ok := index[name]; !ok {
				return nil, fmt.Errorf("category %q references unknown product %q", c.Name, name)
			}
		}
	}
	return &Catalog{categories: categories, products: index, menuImage: menuImage}, nil
}

// MenuImage is the picture shown with the top-level menu.
func (c *Catalog) MenuImage() string { return c.menuImage }

// Categories returns category names in display order.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat.Name)
	}
	return out
}

// Products returns the products listed under category.
func (c *Catalog) Products(category string) ([]string, bool) {
	for _, cat := range c.categories {
		if cat.Name == category {
			out := make([]string, len(cat.Products))
			copy(out, cat.Products)
			return out, true
		}
	}
	return nil, false
}

// Product looks up a product by name.
func (c *Catalog) Product(name string) (Product, bool) {
	p, ok := c.products[name]
	return p, ok
}

// Prices returns the quantity options for product in display order.
func (c *Catalog) Prices(product string) ([]PriceOption, bool) {
	p, ok := c.products[product]
	if !ok {
		return nil, false
	}
	out := make([]PriceOption, len(p.Options))
	copy(out, p.Options)
	return out, true
}

// Price returns the price of one quantity label.
func (c *Catalog) Price(product, label string) (int, bool) {
	p, ok := c.products[product]
	if !ok {
		return 0, false
	}
	for _, opt := range p.Options {
		if opt.Label == label {
			return opt.Price, true
		}
	}
	return 0, false
}

// Item builds a cart item for product and label. A claimed price that
// disagrees with the menu is rejected.
func (c *Catalog) Item(product, label string, claimed int) (types.CartItem, error) {
	price, ok := c.Price(product, label)
	if !ok {
		return types.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown product or quantity").
			WithDetails(map[string]any{"product": product, "quantity": label})
	}
	if claimed != price {
		return types.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "price does not match menu").
			WithDetails(map[string]any{"product": product, "quantity": label, "price": price})
	}
	return types.CartItem{Product: product, QuantityLabel: label, UnitPrice: price}, nil
}
