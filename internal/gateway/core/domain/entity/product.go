package entity

// Product is owned by the Products backend. The gateway treats it as
// read-only, possibly-stale reference data for the monitor join.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}
