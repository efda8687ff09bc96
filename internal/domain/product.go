package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	PricePaise  int64     `json:"pricePaise"`
	Stock       int       `json:"stock"`
	Images      []string  `json:"images,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
