package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"shop-api/models"

	"github.com/lib/pq"
)

const userColumns = "user_id, name, username, password, status, created_by, updated_by, deleted_by, deleted_at, created_at, updated_at"

// UserStore owns the users table. Every read filters to active rows
// (deleted_at IS NULL); soft-deleted users stay in the table but are
// invisible through this interface.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// NewUser carries the fields a caller supplies on create. Password must
// already be hashed.
type NewUser struct {
	Name      string
	Username  string
	Password  string
	Status    bool
	CreatedBy *int
}

// UserPatch carries optional fields for partial updates; nil means
// "leave unchanged". Password, when set, must already be hashed.
type UserPatch struct {
	Name      *string
	Username  *string
	Password  *string
	Status    *bool
	UpdatedBy *int
}

func (s *UserStore) Create(ctx context.Context, nu NewUser) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO users (name, username, password, status, created_by) VALUES ($1, $2, $3, $4, $5) RETURNING "+userColumns,
		nu.Name, nu.Username, nu.Password, nu.Status, nu.CreatedBy,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *UserStore) Update(ctx context.Context, userID int, patch UserPatch) (*models.User, error) {
	query := "UPDATE users SET updated_at = NOW()"
	args := []interface{}{}
	argPos := 1

	if patch.Name != nil {
		query += ", name = $" + strconv.Itoa(argPos)
		args = append(args, *patch.Name)
		argPos++
	}
	if patch.Username != nil {
		query += ", username = $" + strconv.Itoa(argPos)
		args = append(args, *patch.Username)
		argPos++
	}
	if patch.Password != nil {
		query += ", password = $" + strconv.Itoa(argPos)
		args = append(args, *patch.Password)
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

	query += " WHERE user_id = $" + strconv.Itoa(argPos) + " AND deleted_at IS NULL RETURNING " + userColumns
	args = append(args, userID)

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, translate(err)
	}
	return u, nil
}

func (s *UserStore) SoftDelete(ctx context.Context, userID int, deletedBy *int) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE users SET status = FALSE, deleted_by = $2, deleted_at = NOW(), updated_at = NOW() WHERE user_id = $1 AND deleted_at IS NULL RETURNING "+userColumns,
		userID, deletedBy,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID int) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id = $1 AND deleted_at IS NULL",
		userID,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByUsername returns the active user with the given username,
// password hash included. It is the one lookup that exposes the hash;
// callers use it for credential checks and pre-insert uniqueness checks.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1 AND deleted_at IS NULL",
		username,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserStore) ListActive(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE deleted_at IS NULL ORDER BY user_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// GetActiveByIDs batch-loads active users for enrichment; unknown or
// deleted ids are simply absent from the result.
func (s *UserStore) GetActiveByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id = ANY($1) AND deleted_at IS NULL",
		pq.Array(toInt64(ids)),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.UserID, &u.Name, &u.Username, &u.Password, &u.Status,
		&u.CreatedBy, &u.UpdatedBy, &u.DeletedBy, &u.DeletedAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func toInt64(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
