package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound means the query ran and matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the write violated a unique constraint (second profile for an owner).
	ErrConflict = errors.New("record already exists")
)

// QueryError means the query itself failed. It is never returned for a missing row.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryFailed reports whether err came from a failed query rather than a missing row.
func IsQueryFailed(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
