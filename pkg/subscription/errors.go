package subscription

import "errors"

var (
	ErrInvalidDurationUnit = errors.New("subscription: invalid plan duration unit")
	ErrInvalidDate         = errors.New("subscription: invalid date")
	ErrPlanNotFound        = errors.New("subscription: plan not found")
)
