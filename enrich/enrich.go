// Package enrich joins user and product summaries onto orders for read
// endpoints. It batch-loads each referenced entity set once per call,
// never per order, and never mutates the stores.
package enrich

import (
	"context"

	"shop-api/models"
)

type UserDirectory interface {
	GetActiveByIDs(ctx context.Context, ids []int) ([]models.User, error)
}

type ProductDirectory interface {
	GetActiveByIDs(ctx context.Context, ids []int) ([]models.Product, error)
}

type Enricher struct {
	users    UserDirectory
	products ProductDirectory
}

func New(users UserDirectory, products ProductDirectory) *Enricher {
	return &Enricher{users: users, products: products}
}

// Order enriches a single order.
func (e *Enricher) Order(ctx context.Context, order models.Order) (*models.EnrichedOrder, error) {
	enriched, err := e.Orders(ctx, []models.Order{order})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// Orders enriches a batch. User ids are collected from the owner and the
// audit columns, product ids from every line item; each set loads in one
// query. An id that does not resolve to an active record degrades instead
// of failing the call: the user summary is omitted, the line item gets a
// null product and lineTotal.
func (e *Enricher) Orders(ctx context.Context, orders []models.Order) ([]models.EnrichedOrder, error) {
	userIDs := make(map[int]bool)
	productIDs := make(map[int]bool)
	for _, o := range orders {
		userIDs[o.UserID] = true
		for _, ref := range []*int{o.CreatedBy, o.UpdatedBy, o.DeletedBy} {
			if ref != nil {
				userIDs[*ref] = true
			}
		}
		for _, item := range o.Products {
			productIDs[item.ProductID] = true
		}
	}

	users, err := e.users.GetActiveByIDs(ctx, keys(userIDs))
	if err != nil {
		return nil, err
	}
	products, err := e.products.GetActiveByIDs(ctx, keys(productIDs))
	if err != nil {
		return nil, err
	}

	userMap := make(map[int]*models.UserSummary, len(users))
	for i := range users {
		userMap[users[i].UserID] = users[i].Summary()
	}
	productMap := make(map[int]*models.ProductSummary, len(products))
	for i := range products {
		productMap[products[i].ProductID] = products[i].Summary()
	}

	enriched := make([]models.EnrichedOrder, 0, len(orders))
	for _, o := range orders {
		eo := models.EnrichedOrder{
			OrderID:     o.OrderID,
			UserID:      o.UserID,
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
			CreatedBy:   o.CreatedBy,
			UpdatedBy:   o.UpdatedBy,
			DeletedBy:   o.DeletedBy,
			DeletedAt:   o.DeletedAt,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
			User:        userMap[o.UserID],
		}
		if o.CreatedBy != nil {
			eo.CreatedByUser = userMap[*o.CreatedBy]
		}
		if o.UpdatedBy != nil {
			eo.UpdatedByUser = userMap[*o.UpdatedBy]
		}
		if o.DeletedBy != nil {
			eo.DeletedByUser = userMap[*o.DeletedBy]
		}

		eo.Products = make([]models.EnrichedLineItem, 0, len(o.Products))
		for _, item := range o.Products {
			eo.Products = append(eo.Products, models.EnrichedLineItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Product:   productMap[item.ProductID],
				LineTotal: lineTotal(item, productMap[item.ProductID]),
			})
		}
		enriched = append(enriched, eo)
	}

	return enriched, nil
}

// lineTotal is the read-time pricing policy: totals reflect the current
// catalog price, not the price at order time. A snapshot-based policy
// would replace this one function.
func lineTotal(item models.LineItem, product *models.ProductSummary) *float64 {
	if product == nil {
		return nil
	}
	total := product.Price * float64(item.Quantity)
	return &total
}

func keys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
