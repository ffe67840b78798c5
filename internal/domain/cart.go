package domain

// CartEntry is one product line of a buyer's cart.
type CartEntry struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart is advisory client state; nothing in it is binding until checkout.
type Cart struct {
	BuyerID uint64      `json:"buyerId"`
	Entries []CartEntry `json:"entries"`
}

func (c *Cart) find(productID uint64) int {
	for i, e := range c.Entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges qty into the existing entry for the product, capping the line at max when max > 0.
func (c *Cart) Add(productID uint64, qty, max int) CartEntry {
	i := c.find(productID)
	if i < 0 {
		c.Entries = append(c.Entries, CartEntry{ProductID: productID})
		i = len(c.Entries) - 1
	}
	c.Entries[i].Quantity = clampQuantity(c.Entries[i].Quantity+qty, max)
	return c.Entries[i]
}

// SetQuantity replaces the line quantity. It reports false when the product is not in the cart.
func (c *Cart) SetQuantity(productID uint64, qty, max int) (CartEntry, bool) {
	i := c.find(productID)
	if i < 0 {
		return CartEntry{}, false
	}
	c.Entries[i].Quantity = clampQuantity(qty, max)
	return c.Entries[i], true
}

func (c *Cart) Remove(productID uint64) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Entries = nil
}

func (c *Cart) Empty() bool {
	return len(c.Entries) == 0
}

func clampQuantity(qty, max int) int {
	if max > 0 && qty > max {
		qty = max
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

// MergeEntries folds duplicate product lines together, keeping first-seen order.
// Quantities are summed as given, so callers reject lines below 1 first.
func MergeEntries(entries []CartEntry) []CartEntry {
	merged := make([]CartEntry, 0, len(entries))
	index := make(map[uint64]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.ProductID]; ok {
			merged[i].Quantity += e.Quantity
			continue
		}
		index[e.ProductID] = len(merged)
		merged = append(merged, e)
	}
	return merged
}
