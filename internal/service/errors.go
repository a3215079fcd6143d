package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidAmount = errors.New("order total must not be negative")
	ErrForbidden     = errors.New("order belongs to another user")
)

// PaymentIncompleteError means the provider answered the capture but the
// money did not move. A business rejection, not an outage.
type PaymentIncompleteError struct {
	ProviderOrderID string
	Status          string
}

func (e *PaymentIncompleteError) Error() string {
	return fmt.Sprintf("payment for provider order %s not completed: status %q", e.ProviderOrderID, e.Status)
}
