package httpx

// CreateOrderRequest is the POST /orders body. The submitting user is
// taken from the validated credential, never from the body.
type CreateOrderRequest struct {
	Positions []CreateOrderPositionDTO `json:"positions"`
}

type CreateOrderPositionDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderAcceptedResponse acknowledges a persisted, not yet processed,
// order.
type OrderAcceptedResponse struct {
	OrderID string `json:"orderId"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
