package models

import "time"

// LineItem is a (product_id, quantity) pair inside an order. Only these
// two fields are persisted; prices are resolved against the catalog on
// every write and read.
type LineItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// Order mirrors a row in the orders table plus its order_items.
type Order struct {
	OrderID     int        `json:"order_id"`
	UserID      int        `json:"user_id"`
	Products    []LineItem `json:"products"`
	TotalAmount float64    `json:"totalAmount"`
	Status      bool       `json:"status"`
	CreatedBy   *int       `json:"createdBy"`
	UpdatedBy   *int       `json:"updatedBy"`
	DeletedBy   *int       `json:"DeletedBy"`
	DeletedAt   *time.Time `json:"DeletedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// EnrichedLineItem is a line item with product detail joined in. Product
// and LineTotal stay null when the referenced product is deleted or
// missing; the enrichment never fails over a single unresolvable item.
type EnrichedLineItem struct {
	ProductID int             `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product"`
	LineTotal *float64        `json:"lineTotal"`
}

// EnrichedOrder is the read-side shape of an order: user summaries for
// every user reference that resolves to an active user, and product
// detail per line item.
type EnrichedOrder struct {
	OrderID       int                `json:"order_id"`
	UserID        int                `json:"user_id"`
	Products      []EnrichedLineItem `json:"products"`
	TotalAmount   float64            `json:"totalAmount"`
	Status        bool               `json:"status"`
	CreatedBy     *int               `json:"createdBy"`
	UpdatedBy     *int               `json:"updatedBy"`
	DeletedBy     *int               `json:"DeletedBy"`
	DeletedAt     *time.Time         `json:"DeletedAt"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	User          *UserSummary       `json:"user,omitempty"`
	CreatedByUser *UserSummary       `json:"createdByUser,omitempty"`
	UpdatedByUser *UserSummary       `json:"updatedByUser,omitempty"`
	DeletedByUser *UserSummary       `json:"DeletedByUser,omitempty"`
}

// LineItemRequest keeps both fields as pointers so the boundary can tell
// "absent" apart from zero and reject the whole request on either.
type LineItemRequest struct {
	ProductID *int `json:"product_id"`
	Quantity  *int `json:"quantity"`
}

type CreateOrderRequest struct {
	Products []LineItemRequest `json:"products"`
	Status   *bool             `json:"status"`
}

type UpdateOrderRequest struct {
	Products []LineItemRequest `json:"products"`
	Status   *bool             `json:"status"`
}
