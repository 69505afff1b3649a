package service

import "errors"

// Sentinel errors the handlers translate into HTTP statuses. Services
// wrap them with context via fmt.Errorf and %w.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrTokenExpired = errors.New("signing token expired")
)
