package domain

import "time"

// Cart is the per-user pre-checkout state. Lines with quantity zero are
// removed rather than stored.
type Cart struct {
	UserID    string     `json:"userId"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// FindLine returns the index of the line for productID, or -1.
func (c *Cart) FindLine(productID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
