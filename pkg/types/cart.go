package types

import (
	"fmt"
	"strings"
)

// CartItem is one selection added to a cart. Items are never merged, so the
// same product can appear more than once.
type CartItem struct {
	Product       string `json:"product"`
	QuantityLabel string `json:"quantity_label"`
	UnitPrice     int    `json:"unit_price"`
}

// Line renders the item as a bullet line.
func (c CartItem) Line() string {
	return fmt.Sprintf("• %s %s - $%d", c.QuantityLabel, c.Product, c.UnitPrice)
}

// Cart is an ordered sequence of items.
type Cart []CartItem

// Total sums the item prices.
func (c Cart) Total() int {
	total := 0
	for _, item := range c {
		total += item.UnitPrice
	}
	return total
}

// Text renders one line per item.
func (c Cart) Text() string {
	lines := make([]string, 0, len(c))
	for _, item := range c {
		lines = append(lines, item.Line())
	}
	return strings.Join(lines, "\n")
}

// Clone returns an independent copy.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
