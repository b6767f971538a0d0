package models

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
	Token   string `json:"token,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// OrderWriteData is the data payload of order create/update responses:
// the saved order plus the pricing breakdown computed for it.
type OrderWriteData struct {
	Order   *Order        `json:"order"`
	Summary *OrderSummary `json:"summary"`
}

// OrderSummary is the pricing breakdown returned alongside a written order.
type OrderSummary struct {
	TotalAmount float64      `json:"totalAmount"`
	Products    []LineDetail `json:"products"`
}

// LineDetail is the per-item pricing breakdown, in input order.
type LineDetail struct {
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	LineTotal float64 `json:"lineTotal"`
}
