// Package middleware carries the cross-cutting gin middleware: request
// logging with trace ids, JWT authentication, role authorization and
// prometheus metrics.
package middleware

import (
	"ecommerce-backend/internal/auth"
)

type Mid struct {
	keys *auth.Keys
}

func NewMid(keys *auth.Keys) *Mid {
	return &Mid{keys: keys}
}
