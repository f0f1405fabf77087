package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrItemNotFound = errors.New("item not found")

// Item is a single inventory entry.
type Item struct {
	Name     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// Inventory maps item names to quantities and remembers insertion order.
// It is not safe for concurrent use.
type Inventory struct {
	order []string
	stock map[string]int
}

func NewInventory() *Inventory {
	return &Inventory{stock: make(map[string]int)}
}

// Add increments item by qty, creating it at zero first, and returns the new quantity.
func (inv *Inventory) Add(item string, qty int) int {
	if inv.stock == nil {
		inv.stock = make(map[string]int)
	}
	current, ok := inv.stock[item]
	if !ok {
		inv.order = append(inv.order, item)
	}
	current += qty
	inv.stock[item] = current
	return current
}

// Remove decrements item by qty. An entry that drops to zero or below is
// deleted and 0 is returned.
func (inv *Inventory) Remove(item string, qty int) (int, error) {
	current, ok := inv.stock[item]
	if !ok {
		return 0, fmt.Errorf("remove %q: %w", item, ErrItemNotFound)
	}

	current -= qty
	if current <= 0 {
		inv.delete(item)
		return 0, nil
	}

	inv.stock[item] = current
	return current, nil
}

func (inv *Inventory) Quantity(item string) (int, bool) {
	qty, ok := inv.stock[item]
	return qty, ok
}

func (inv *Inventory) Len() int {
	return len(inv.order)
}

// Items returns the entries in insertion order.
func (inv *Inventory) Items() []Item {
	items := make([]Item, 0, len(inv.order))
	for _, name := range inv.order {
		items = append(items, Item{Name: name, Quantity: inv.stock[name]})
	}
	return items
}

// Below returns the names whose quantity is strictly less than threshold.
func (inv *Inventory) Below(threshold int) []string {
	low := make([]string, 0)
	for _, name := range inv.order {
		if inv.stock[name] < threshold {
			low = append(low, name)
		}
	}
	return low
}

// Equal reports whether both inventories hold the same entries in the same order.
func (inv *Inventory) Equal(other *Inventory) bool {
	if other == nil || len(inv.order) != len(other.order) {
		return false
	}
	for i, name := range inv.order {
		if other.order[i] != name || other.stock[name] != inv.stock[name] {
			return false
		}
	}
	return true
}

func (inv *Inventory) delete(item string) {
	delete(inv.stock, item)
	for i, name := range inv.order {
		if name == item {
			inv.order = append(inv.order[:i], inv.order[i+1:]...)
			return
		}
	}
}

// MarshalJSON encodes the inventory as a JSON object in insertion order.
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range inv.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", inv.stock[name])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the inventory with the entries of a JSON object,
// keeping the order in which keys appear.
func (inv *Inventory) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("inventory: expected JSON object, got %v", tok)
	}

	decoded := NewInventory()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("inventory: unexpected key %v", tok)
		}

		var qty int
		if err := dec.Decode(&qty); err != nil {
			return fmt.Errorf("inventory: quantity of %q: %w", name, err)
		}

		if _, exists := decoded.stock[name]; !exists {
			decoded.order = append(decoded.order, name)
		}
		decoded.stock[name] = qty
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*inv = *decoded
	return nil
}
