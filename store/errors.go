package store

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound means no active (non-deleted) record matched.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a unique constraint rejected the write.
	ErrConflict = errors.New("duplicate record")
)

const pqUniqueViolation = "23505"

// translate maps driver errors to the store's sentinel errors.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrConflict
	}
	return err
}
