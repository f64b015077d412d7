package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const defaultSizeKey = "default"

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

type CartItem struct {
	ID       string    `bson:"_id" json:"-"`
	UserID   string    `bson:"userId" json:"-"`
	Key      string    `bson:"key" json:"id"`
	UID      string    `bson:"uid" json:"uid"`
	Category Category  `bson:"category" json:"category"`
	Size     string    `bson:"size,omitempty" json:"size,omitempty"`
	Quantity int       `bson:"quantity" json:"quantity"`
	Name     string    `bson:"name" json:"name"`
	Price    float64   `bson:"price" json:"price"`
	Images   []string  `bson:"images" json:"images"`
	AddedAt  time.Time `bson:"addedAt" json:"addedAt"`
}

// CartKey identifies a cart line: one per product and size.
func CartKey(productUID, size string) string {
	if size == "" {
		size = defaultSizeKey
	}
	return fmt.Sprintf("%s-%s", productUID, size)
}

// UserScopedID is the document id of a record nested under a user.
func UserScopedID(userID, key string) string {
	return fmt.Sprintf("%s/%s", userID, key)
}

type CartLine struct {
	CartItem  `bson:",inline"`
	Available int `json:"available"`
}

type CartView struct {
	Items    []CartLine      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// AddedQuantity is the quantity after adding requested units to an existing line.
func AddedQuantity(existing, requested, available int) int {
	return min(existing+requested, available)
}

func SteppedQuantity(current int, direction Direction, available int) int {
	if direction == DirectionIncrease {
		return min(current+1, available)
	}
	return max(current-1, 1)
}

// Reconcile joins cart items with their live products. Items whose product is
// gone are dropped; quantities are clamped to the current stock.
func Reconcile(items []CartItem, products map[string]Product) CartView {
	view := CartView{Items: make([]CartLine, 0, len(items)), Subtotal: decimal.Zero}

	for _, item := range items {
		product, ok := products[item.UID]
		if !ok {
			continue
		}

		available := product.Inventory.Available(item.Size)
		item.Quantity = min(item.Quantity, available)
		item.Name = product.Name
		item.Price = product.Price
		item.Images = product.Images

		view.Items = append(view.Items, CartLine{CartItem: item, Available: available})
		view.Subtotal = view.Subtotal.Add(LineTotal(item.Price, item.Quantity))
	}

	return view
}

func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// MinorUnits converts an amount to its smallest currency unit, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
