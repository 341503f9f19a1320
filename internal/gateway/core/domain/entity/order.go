package entity

import "time"

// Order is the shape the Orders backend returns and the submission
// endpoint persists. The gateway only ever reads orders after creation.
type Order struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	UserName  string     `json:"userName"`
	Positions []Position `json:"positions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Position is one line of an order. It has no lifecycle of its own.
type Position struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
