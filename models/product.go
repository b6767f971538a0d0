package models

import "time"

// Product mirrors a row in the products table. The product_id comes from
// the product_id counter sequence, not from the table itself.
type Product struct {
	ProductID   int        `json:"product_id"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	Status      bool       `json:"status"`
	CreatedBy   *int       `json:"createdBy"`
	UpdatedBy   *int       `json:"updatedBy"`
	DeletedBy   *int       `json:"DeletedBy"`
	DeletedAt   *time.Time `json:"DeletedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProductSummary is the shape joined onto order line items during enrichment.
type ProductSummary struct {
	ProductID   int     `json:"product_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Status      bool    `json:"status"`
}

func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ProductID:   p.ProductID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Status:      p.Status,
	}
}

type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Description string   `json:"description"`
	Status      *bool    `json:"status"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Description *string  `json:"description"`
	Status      *bool    `json:"status"`
}
