// Package store is the gorm-backed persistence layer. Every mutation is a
// single-row (or single-transaction) write; callers never lock.
package store

import (
	"errors"
	"fmt"
	"strings"

	"campus-canteen-api/apperr"

	"gorm.io/gorm"
)

// translate maps driver errors onto the apperr taxonomy
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s not found", apperr.ErrNotFound, what)
	case isDuplicate(err):
		return fmt.Errorf("%w: %s already exists", apperr.ErrConflict, what)
	}
	return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// drivers that do not implement gorm's error translator
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
