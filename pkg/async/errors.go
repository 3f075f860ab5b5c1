package async

import "errors"

var (
	ErrStopped         = errors.New("async: poll stopped")
	ErrMaxAttempts     = errors.New("async: poll attempts exhausted")
	ErrTooManyErrors   = errors.New("async: poll error budget exhausted")
	ErrInvalidInterval = errors.New("async: poll interval must be positive")
)
