package orders

import "errors"

var (
	ErrPhoneRequired     = errors.New("phone is required")
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrOrdersUnavailable = errors.New("orders unavailable")
)
