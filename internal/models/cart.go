package models

import "time"

// CartItem is a client-local staging line; it never reaches the shared
// store directly, only as a frozen OrderItem at checkout.
type CartItem struct {
	ProductID string    `json:"productId"`
	Title     string    `json:"title"`
	Price     int       `json:"price"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// Cart is the ordered list of staged lines for one scope.
type Cart []CartItem

// Total returns the sum of price times quantity over all lines.
func (c Cart) Total() int {
	total := 0
	for _, item := range c {
		total += item.Price * item.Quantity
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c {
		count += item.Quantity
	}
	return count
}

// Lines converts the cart into order items for checkout.
func (c Cart) Lines() []OrderItem {
	items := make([]OrderItem, 0, len(c))
	for _, it := range c {
		items = append(items, OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return items
}
