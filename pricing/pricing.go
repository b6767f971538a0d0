// Package pricing resolves order line items against the catalog and
// computes totals. It is a pure read: nothing here writes anywhere.
package pricing

import (
	"context"
	"fmt"

	"shop-api/models"
)

// Catalog is the slice of the product store the engine needs: one batch
// lookup of active products.
type Catalog interface {
	GetActiveByIDs(ctx context.Context, ids []int) ([]models.Product, error)
}

// Totals is the result of pricing a line-item list: the grand total plus
// a per-item breakdown in input order.
type Totals struct {
	TotalAmount float64
	Details     []models.LineDetail
}

// ProductNotFoundError reports a line item whose product has no active
// match. The whole computation fails; no partial total is produced.
type ProductNotFoundError struct {
	ProductID int
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with product_id %d not found or inactive", e.ProductID)
}

type Engine struct {
	catalog Catalog
}

func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// ComputeTotals prices the given line items against the current catalog.
// Referenced products are fetched in one batch, filtered to active rows.
// Quantity defaults to 1 when non-positive; callers gate stricter than
// that before calling (a request with quantity <= 0 never reaches here).
func (e *Engine) ComputeTotals(ctx context.Context, items []models.LineItem) (*Totals, error) {
	ids := make([]int, 0, len(items))
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := e.catalog.GetActiveByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}

	prices := make(map[int]float64, len(products))
	for _, p := range products {
		prices[p.ProductID] = p.Price
	}

	totals := &Totals{Details: make([]models.LineDetail, 0, len(items))}
	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}

		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		lineTotal := price * float64(quantity)
		totals.TotalAmount += lineTotal
		totals.Details = append(totals.Details, models.LineDetail{
			ProductID: item.ProductID,
			Quantity:  quantity,
			Price:     price,
			LineTotal: lineTotal,
		})
	}

	return totals, nil
}
