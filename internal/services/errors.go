package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"storefront/internal/cart"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrCouponNotFound    = cart.ErrCouponNotFound
	ErrStoreClosed       = errors.New("store is closed")
	ErrItemUnavailable   = errors.New("item is unavailable")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOffline           = errors.New("store database is read-only")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDuplicate         = errors.New("already exists")
)

// ValidationError maps each rejected field to a message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func newValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.add(field, msg)
	return v
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
