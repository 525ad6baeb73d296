package services

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxItemQuantity caps the quantity of a single cart line
const MaxItemQuantity = 10

var (
	ErrItemNotFound     = errors.New("menu item not found")
	ErrMenuSizeNotFound = errors.New("item not found in menu")
	ErrNotInCart        = errors.New("item not found in cart")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidStatus    = errors.New("invalid order status")
)

// ValidationError is a user facing validation failure. Suggestions holds
// close menu matches when the requested item was not found.
type ValidationError struct {
	Message     string
	Suggestions []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func quantityLimitError(inCart int) *ValidationError {
	if inCart > 0 {
		return &ValidationError{Message: fmt.Sprintf("You already have %d in your cart. The limit is %d per item.", inCart, MaxItemQuantity)}
	}
	return &ValidationError{Message: fmt.Sprintf("You can order at most %d of an item.", MaxItemQuantity)}
}

// FormatAmount renders a price without trailing zeros: 140, 12.5
func FormatAmount(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
