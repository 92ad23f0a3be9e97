package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation), http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("%w: not yours", ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("%w: Order not found", ErrNotFound), http.StatusNotFound},
		{"conflict", ErrConflict, http.StatusConflict},
		{"duplicate utr", fmt.Errorf("create order: %w", ErrDuplicateUTR), http.StatusBadRequest},
		{"unavailable", fmt.Errorf("%w: db down", ErrUnavailable), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestDuplicateUTRIsConflict(t *testing.T) {
	assert.ErrorIs(t, ErrDuplicateUTR, ErrConflict)
	assert.Equal(t, "UTR ID already used", Message(ErrDuplicateUTR))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Order not found", Message(fmt.Errorf("%w: Order not found", ErrNotFound)))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}
