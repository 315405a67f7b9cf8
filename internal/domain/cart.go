package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	Version   int64      `bson:"version" json:"version"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// CartDetails is a cart with the display fields of every product resolved.
type CartDetails struct {
	ID        string            `json:"id,omitempty"`
	UserID    string            `json:"user_id"`
	Items     []CartItemDetails `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type CartItemDetails struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Unavailable bool            `json:"unavailable,omitempty"`
}

// MergeItem adds quantity to the line for productID, appending a new line when
// the cart does not hold the product yet. The input slice is not modified.
func MergeItem(items []CartItem, productID string, quantity int, now time.Time) ([]CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	merged := make([]CartItem, len(items), len(items)+1)
	copy(merged, items)

	for i := range merged {
		if merged[i].ProductID == productID {
			merged[i].Quantity += quantity
			merged[i].AddedAt = now
			return merged, nil
		}
	}

	return append(merged, CartItem{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   now,
	}), nil
}

// DecrementItem subtracts amount from the line for productID and drops the line
// once its quantity reaches zero. found is false when the product is not in items.
func DecrementItem(items []CartItem, productID string, amount int) (result []CartItem, found bool, err error) {
	if amount <= 0 {
		return nil, false, ErrInvalidQuantity
	}

	result = make([]CartItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			result = append(result, item)
			continue
		}
		found = true
		item.Quantity -= amount
		if item.Quantity > 0 {
			result = append(result, item)
		}
	}

	if !found {
		return items, false, nil
	}
	return result, true, nil
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
