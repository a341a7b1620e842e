package services

import (
	"errors"

	"tienda/internal/repositories"
)

// Sentinel errors surfaced by the service layer. Handlers match these with
// errors.Is to pick the HTTP status.
var (
	// ErrEmptyCart is surfaced when order creation is attempted on an empty
	// cart. Detected inside the checkout transaction, re-exported here so
	// callers only ever depend on service errors.
	ErrEmptyCart = repositories.ErrEmptyCart

	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found")
)
