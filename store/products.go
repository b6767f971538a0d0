package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"shop-api/models"

	"github.com/lib/pq"
)

const productColumns = "product_id, name, price, description, status, created_by, updated_by, deleted_by, deleted_at, created_at, updated_at"

// ProductStore owns the products table. product_id is drawn from the
// product_id counter at first insert and never changes afterwards.
type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

type NewProduct struct {
	Name        string
	Price       float64
	Description string
	Status      bool
	CreatedBy   *int
}

type ProductPatch struct {
	Name        *string
	Price       *float64
	Description *string
	Status      *bool
	UpdatedBy   *int
}

func (s *ProductStore) Create(ctx context.Context, np NewProduct) (*models.Product, error) {
	productID, err := NextSequence(ctx, s.db, ProductSequence)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		"INSERT INTO products (product_id, name, price, description, status, created_by) VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+productColumns,
		productID, np.Name, np.Price, np.Description, np.Status, np.CreatedBy,
	)
	p, err := scanProduct(row)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (s *ProductStore) Update(ctx context.Context, productID int, patch ProductPatch) (*models.Product, error) {
	query := "UPDATE products SET updated_at = NOW()"
	args := []interface{}{}
	argPos := 1

	if patch.Name != nil {
		query += ", name = $" + strconv.Itoa(argPos)
		args = append(args, *patch.Name)
		argPos++
	}
	if patch.Price != nil {
		query += ", price = $" + strconv.Itoa(argPos)
		args = append(args, *patch.Price)
		argPos++
	}
	if patch.Description != nil {
		query += ", description = $" + strconv.Itoa(argPos)
		args = append(args, *patch.Description)
		argPos++
	}
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

	query += " WHERE product_id = $" + strconv.Itoa(argPos) + " AND deleted_at IS NULL RETURNING " + productColumns
	args = append(args, productID)

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductStore) SoftDelete(ctx context.Context, productID int, deletedBy *int) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE products SET status = FALSE, deleted_by = $2, deleted_at = NOW(), updated_at = NOW() WHERE product_id = $1 AND deleted_at IS NULL RETURNING "+productColumns,
		productID, deletedBy,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductStore) GetByID(ctx context.Context, productID int) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE product_id = $1 AND deleted_at IS NULL",
		productID,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductStore) ListActive(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE deleted_at IS NULL ORDER BY product_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// GetActiveByIDs batch-loads active products in one query. Pricing and
// enrichment both rely on this to avoid N+1 lookups; ids with no active
// match are absent from the result, never an error here.
func (s *ProductStore) GetActiveByIDs(ctx context.Context, ids []int) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE product_id = ANY($1) AND deleted_at IS NULL",
		pq.Array(toInt64(ids)),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ProductID, &p.Name, &p.Price, &p.Description, &p.Status,
		&p.CreatedBy, &p.UpdatedBy, &p.DeletedBy, &p.DeletedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
