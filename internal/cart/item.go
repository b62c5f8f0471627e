package cart

import (
	"math"

	"github.com/shopspring/decimal"
)

// LineItem is one row in a cart: a product id with the name/price captured at
// add time and the accumulated quantity. The JSON shape is the persisted cart
// payload, so field names are part of the storage contract.
type LineItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// NormalizePrice coerces a source price to a finite, usable number. NaN and
// infinities become 0 so they can never poison the cart total.
func NormalizePrice(price float64) float64 {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	return price
}

// MergeItem folds item into items: an existing line with the same ID gets its
// quantity incremented, otherwise the item is appended. The returned slice is
// a fresh copy; callers persist it wholesale.
func MergeItem(items []LineItem, item LineItem) []LineItem {
	merged := make([]LineItem, 0, len(items)+1)
	found := false
	for _, existing := range items {
		if existing.ID == item.ID {
			existing.Quantity += item.Quantity
			found = true
		}
		merged = append(merged, existing)
	}
	if !found {
		merged = append(merged, item)
	}
	return merged
}

// AdjustQuantity applies delta to the line with the given ID, clamping at zero.
// A line that reaches zero quantity is removed rather than retained.
func AdjustQuantity(items []LineItem, id string, delta int) []LineItem {
	adjusted := make([]LineItem, 0, len(items))
	for _, existing := range items {
		if existing.ID == id {
			existing.Quantity += delta
			if existing.Quantity <= 0 {
				continue
			}
		}
		adjusted = append(adjusted, existing)
	}
	return adjusted
}

// RemoveItem drops the line with the given ID, if present.
func RemoveItem(items []LineItem, id string) []LineItem {
	remaining := make([]LineItem, 0, len(items))
	for _, existing := range items {
		if existing.ID == id {
			continue
		}
		remaining = append(remaining, existing)
	}
	return remaining
}

// Totals computes the derived aggregates over the items: total = Σ price×qty
// as an exact decimal, count = Σ qty.
func Totals(items []LineItem) (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0
	for _, item := range items {
		price := decimal.NewFromFloat(NormalizePrice(item.Price))
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	return total, count
}
