package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"shop-api/models"

	"github.com/lib/pq"
)

const orderColumns = "order_id, user_id, total_amount, status, created_by, updated_by, deleted_by, deleted_at, created_at, updated_at"

// OrderStore owns the orders and order_items tables. Line items keep
// their input order through the position column. The store persists the
// totalAmount it is handed; recomputing it against the catalog is the
// caller's job, on every create and update.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

type NewOrder struct {
	UserID      int
	Items       []models.LineItem
	TotalAmount float64
	Status      bool
	CreatedBy   *int
}

type OrderPatch struct {
	Items       []models.LineItem
	TotalAmount float64
	Status      *bool
	UpdatedBy   *int
}

// Create assigns the next order_id and persists the order with its
// items. The sequence increment runs outside the insert transaction: a
// crash in between wastes an id but can never hand the same id to two
// orders.
func (s *OrderStore) Create(ctx context.Context, no NewOrder) (*models.Order, error) {
	orderID, err := NextSequence(ctx, s.db, OrderSequence)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"INSERT INTO orders (order_id, user_id, total_amount, status, created_by) VALUES ($1, $2, $3, $4, $5) RETURNING "+orderColumns,
		orderID, no.UserID, no.TotalAmount, no.Status, no.CreatedBy,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, translate(err)
	}

	if err := insertItems(ctx, tx, orderID, no.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Products = no.Items
	return order, nil
}

// Update patches an active order: status and updated_by only when
// supplied, items and total always (the caller has already re-priced).
func (s *OrderStore) Update(ctx context.Context, orderID int, patch OrderPatch) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := "UPDATE orders SET updated_at = NOW(), total_amount = $1"
	args := []interface{}{patch.TotalAmount}
	argPos := 2

	if patch.Status != nil {
		query += ", status = $" + strconv.Itoa(argPos)
		args = append(args, *patch.Status)
		argPos++
	}
	if patch.UpdatedBy != nil {
		query += ", updated_by = $" + strconv.Itoa(argPos)
		args = append(args, *patch.UpdatedBy)
		argPos++
	}

	query += " WHERE order_id = $" + strconv.Itoa(argPos) + " AND deleted_at IS NULL RETURNING " + orderColumns
	args = append(args, orderID)

	order, err := scanOrder(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
		return nil, err
	}
	if err := insertItems(ctx, tx, orderID, patch.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Products = patch.Items
	return order, nil
}

func (s *OrderStore) SoftDelete(ctx context.Context, orderID int, deletedBy *int) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE orders SET status = FALSE, deleted_by = $2, deleted_at = NOW(), updated_at = NOW() WHERE order_id = $1 AND deleted_at IS NULL RETURNING "+orderColumns,
		orderID, deletedBy,
	)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := s.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Products = items
	return order, nil
}

func (s *OrderStore) GetByID(ctx context.Context, orderID int) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE order_id = $1 AND deleted_at IS NULL",
		orderID,
	)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := s.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Products = items
	return order, nil
}

func (s *OrderStore) ListActive(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE deleted_at IS NULL ORDER BY order_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	// One items query for the whole listing.
	ids := make([]int, len(orders))
	index := make(map[int]*models.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].OrderID
		index[orders[i].OrderID] = &orders[i]
	}

	itemRows, err := s.db.QueryContext(ctx,
		"SELECT order_id, product_id, quantity FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position",
		pq.Array(toInt64(ids)),
	)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID int
		var item models.LineItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		if o, ok := index[orderID]; ok {
			o.Products = append(o.Products, item)
		}
	}
	return orders, itemRows.Err()
}

func (s *OrderStore) loadItems(ctx context.Context, orderID int) ([]models.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id, quantity FROM order_items WHERE order_id = $1 ORDER BY position",
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID int, items []models.LineItem) error {
	for i, item := range items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)",
			orderID, i, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i, err)
		}
	}
	return nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.OrderID, &o.UserID, &o.TotalAmount, &o.Status,
		&o.CreatedBy, &o.UpdatedBy, &o.DeletedBy, &o.DeletedAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
