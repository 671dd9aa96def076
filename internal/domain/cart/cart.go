package cart

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart mutations.
var (
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrNegativePrice   = errors.New("unit price must not be negative")
)

// ItemNotFoundError indicates a mutation referenced an item that is not in
// the cart.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not in cart", e.ItemID)
}

// Item is a single cart entry. Name and UnitPrice are copied from the product
// at the moment of adding and never refreshed afterwards, so a catalog price
// change mid-session does not affect an open cart.
type Item struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns UnitPrice multiplied by Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the session-scoped collection of items awaiting checkout.
// Entries are kept in insertion order. Every entry holds Quantity >= 1;
// decreasing an item to zero removes it entirely.
//
// Cart performs no locking of its own. Concurrent access is serialized by the
// owning Session (see store.go), which is the single logical owner of a cart.
type Cart struct {
	entries map[string]*Item
	order   []string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{entries: make(map[string]*Item)}
}

// AddItem adds qty units of the given product to the cart. When an entry with
// the same id already exists its quantity grows by qty and the stored name and
// unit price are kept as-is: the first-seen price wins for the session.
func (c *Cart) AddItem(id, name string, unitPrice decimal.Decimal, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return ErrNegativePrice
	}

	if e, ok := c.entries[id]; ok {
		e.Quantity += qty
		return nil
	}

	c.entries[id] = &Item{
		ID:        id,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  qty,
	}
	c.order = append(c.order, id)
	return nil
}

// Increase increments the named entry's quantity by exactly one.
func (c *Cart) Increase(id string) error {
	e, ok := c.entries[id]
	if !ok {
		return &ItemNotFoundError{ItemID: id}
	}
	e.Quantity++
	return nil
}

// Decrease decrements the named entry's quantity by exactly one. When the
// quantity would drop to zero the entry is removed from the cart; an entry
// with quantity 0 must never be observable.
func (c *Cart) Decrease(id string) error {
	e, ok := c.entries[id]
	if !ok {
		return &ItemNotFoundError{ItemID: id}
	}

	e.Quantity--
	if e.Quantity <= 0 {
		c.remove(id)
	}
	return nil
}

func (c *Cart) remove(id string) {
	delete(c.entries, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.entries = make(map[string]*Item)
	c.order = c.order[:0]
}

// Len returns the number of distinct entries in the cart.
func (c *Cart) Len() int {
	return len(c.entries)
}

// Items returns a snapshot of the cart entries in insertion order.
func (c *Cart) Items() []Item {
	items := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, *c.entries[id])
	}
	return items
}

// Total recomputes the cart total from the current entry set on every call.
// No running total is kept, so the value can never drift from the entries.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, id := range c.order {
		sum = sum.Add(c.entries[id].Subtotal())
	}
	return sum.Round(2)
}

// Description renders the cart as a human-readable order line, one entry per
// item in insertion order: "2 x Frituras 15gr (Bs. 3.00), 1 x Combo (Bs. 20.00)".
// An empty cart yields an empty string.
func (c *Cart) Description() string {
	if len(c.order) == 0 {
		return ""
	}

	parts := make([]string, 0, len(c.order))
	for _, id := range c.order {
		e := c.entries[id]
		parts = append(parts, fmt.Sprintf("%d x %s (%s)", e.Quantity, e.Name, FormatPrice(e.UnitPrice)))
	}
	return strings.Join(parts, ", ")
}

// FormatPrice renders a monetary amount with the store currency prefix and
// two decimal places, e.g. "Bs. 20.00".
func FormatPrice(d decimal.Decimal) string {
	return "Bs. " + d.StringFixed(2)
}
