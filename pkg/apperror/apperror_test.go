package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(NotFound, "cart item not found")
	require.Equal(t, NotFound, KindOf(err))

	wrapped := fmt.Errorf("failed to execute withTx: %w", err)
	require.Equal(t, NotFound, KindOf(wrapped), "kind must survive wrapping")

	require.Equal(t, Internal, KindOf(errors.New("connection refused")))
	require.Equal(t, Internal, KindOf(nil))
}

func TestMessage(t *testing.T) {
	require.Equal(t, "quantity must be greater than 0", Message(New(Validation, "quantity must be greater than 0")))

	// storage details never reach the caller
	require.Equal(t, "internal server error", Message(errors.New(`pq: relation "orders" does not exist`)))
	require.Equal(t, "internal server error", Message(Wrap(Internal, "query failed", errors.New("boom"))))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{Validation, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Unauthenticated, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Status(New(tt.kind, "x")))
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := Wrap(Conflict, "email is already registered", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "email is already registered")
}
