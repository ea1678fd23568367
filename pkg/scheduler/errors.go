package scheduler

import "errors"

var (
	ErrScopeCancelled  = errors.New("scheduler: scope cancelled")
	ErrInvalidInterval = errors.New("scheduler: interval must be positive")
	ErrNilCallback     = errors.New("scheduler: callback is nil")
)
