package entity

// OrderMonitorView is the denormalized monitor row built per request by
// joining an order's positions against the current product snapshot.
// It is never persisted.
type OrderMonitorView struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Positions []PositionView `json:"positions"`
}

// PositionView is one joined position. When the referenced product is
// unknown the product fields stay at their zero values; the position is
// still emitted so an order never silently loses a line.
type PositionView struct {
	ProductID          string  `json:"productId"`
	ProductName        string  `json:"productName"`
	ProductDescription string  `json:"productDescription"`
	ProductPrice       float64 `json:"productPrice"`
	Quantity           int     `json:"quantity"`
}
